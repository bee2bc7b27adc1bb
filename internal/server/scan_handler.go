// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/worker"
)

const maxFormMemory = 1 << 20

// HandleStart handles POST /start: validates the form, starts a scan and
// returns its job id without waiting for it
func (s *Server) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r) {
		writeError(w, http.StatusTooManyRequests, "rate_limited")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form: %v", err))
		return
	}

	req, err := parseScanRequest(r, s.currentSettings())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.scans.Start(r.Context(), req)
	if err != nil {
		s.log.Errorf("Failed to start scan: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to start scan")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"job_id": id})
}

func parseScanRequest(r *http.Request, settings Settings) (worker.Request, error) {
	req := worker.Request{
		BaseDir:  strings.TrimSpace(r.FormValue("base_dir")),
		PartType: strings.TrimSpace(r.FormValue("part_type")),
	}
	if req.BaseDir == "" {
		req.BaseDir = settings.BaseDir
	}

	for _, unit := range r.Form["ren"] {
		if unit = strings.TrimSpace(unit); unit != "" {
			req.Units = append(req.Units, unit)
		}
	}
	if len(req.Units) == 0 {
		req.Units = append([]string(nil), settings.UnitFolders...)
	}

	if req.PartType == "" && len(settings.PartTypes) > 0 {
		req.PartType = settings.PartTypes[0]
	}
	if !form019.IsKnownPartType(req.PartType, settings.PartTypes) {
		return req, fmt.Errorf("unknown part_type %q", req.PartType)
	}

	var err error
	if req.Thresholds.APDepthB, err = form019.ParseThreshold(r.FormValue("ap_b"), r.FormValue("ap_op")); err != nil {
		return req, fmt.Errorf("ap_b: %w", err)
	}
	if req.Thresholds.MLWidthA, err = form019.ParseThreshold(r.FormValue("ml_a"), r.FormValue("ml_op")); err != nil {
		return req, fmt.Errorf("ml_a: %w", err)
	}
	if req.Thresholds.MaxCageHeightC, err = form019.ParseThreshold(r.FormValue("max_c"), r.FormValue("max_op")); err != nil {
		return req, fmt.Errorf("max_c: %w", err)
	}
	return req, nil
}
