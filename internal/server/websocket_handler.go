// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"time"

	"github.com/form019-finder/internal/events"
	"github.com/form019-finder/internal/jobs"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPollInterval = time.Second
)

var upgrader = websocket.Upgrader{
	// The UI is served from this same origin; allow any origin for local tools
	CheckOrigin: func(r *http.Request) bool { return true },
}

func progressEvent(job jobs.Job) events.Event {
	eventType := events.TypeProgress
	if job.Done {
		eventType = events.TypeDone
		if job.Error != "" {
			eventType = events.TypeError
		}
	}
	return events.Event{
		Type:      eventType,
		JobID:     job.ID,
		Timestamp: time.Now(),
		Total:     job.Total,
		Processed: job.Processed,
		Done:      job.Done,
		Error:     job.Error,
	}
}

// HandleProgressStream handles GET /ws/progress/{job_id}: it pushes progress
// events over a websocket until the job is done or deleted
func (s *Server) HandleProgressStream(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	// Subscribe before upgrading so no update between Get and the first read is lost
	sub := s.events.Subscribe(job.ID)
	defer s.events.Unsubscribe(sub)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("WebSocket upgrade failed for job %s: %v", job.ID, err)
		return
	}
	defer conn.Close()

	// Reader goroutine notices client disconnects
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev events.Event) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(ev) == nil
	}

	if !send(progressEvent(job)) || job.Done {
		s.closeStream(conn)
		return
	}

	ticker := time.NewTicker(wsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if ev.Type == events.TypeDeleted {
				s.closeStream(conn)
				return
			}
			if !send(ev) {
				return
			}
			if ev.Done {
				s.closeStream(conn)
				return
			}
		case <-ticker.C:
			// Events can be dropped for slow subscribers; re-read the store
			current, err := s.jobs.Get(r.Context(), job.ID)
			if err != nil {
				s.closeStream(conn)
				return
			}
			if !send(progressEvent(current)) {
				return
			}
			if current.Done {
				s.closeStream(conn)
				return
			}
		}
	}
}

func (s *Server) closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}
