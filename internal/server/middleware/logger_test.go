// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/form019-finder/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestTrafficLogger_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.LevelInfo)

	h := TrafficLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/abc", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "[HTTP] <- 418")
	assert.Contains(t, buf.String(), "GET /progress/abc")
	assert.NotContains(t, buf.String(), "[HTTP] ->")
}

func TestTrafficLogger_PassesFlusher(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{}, logger.LevelInfo)
	var flushable bool
	h := TrafficLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
		_, hijackable := w.(http.Hijacker)
		assert.True(t, hijackable)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, flushable)
}
