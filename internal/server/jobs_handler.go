// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"errors"
	"net/http"

	"github.com/form019-finder/internal/export"
	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/jobs"
)

// lookupJob writes the not-found or failure response itself and reports whether to continue
func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (jobs.Job, bool) {
	id := r.PathValue("job_id")
	job, err := s.jobs.Get(r.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return job, false
	}
	if err != nil {
		s.log.Errorf("Failed to read job %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "job store unavailable")
		return job, false
	}
	return job, true
}

// HandleProgress handles GET /progress/{job_id}
func (s *Server) HandleProgress(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job.Progress())
}

// HandleResults handles GET /results/{job_id}. Rows appear once the job is done.
func (s *Server) HandleResults(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	results := job.Results
	if results == nil || !job.Done {
		results = []form019.MeasurementRow{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// HandleDownload handles GET /download/{job_id}; ?format=xlsx selects the workbook
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("job_id")
	job, err := s.jobs.Get(r.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Errorf("Failed to read job %s: %v", id, err)
		http.Error(w, "Job store unavailable", http.StatusInternalServerError)
		return
	}
	if !job.Done {
		http.Error(w, "Job still running", http.StatusConflict)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		data, err := export.XLSX(job.Results)
		if err != nil {
			s.log.Errorf("Failed to render workbook for job %s: %v", id, err)
			http.Error(w, "Failed to render workbook", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.XLSXFileName+`"`)
		w.Write(data)
		return
	}

	data := job.Export
	if data == nil {
		data = export.CSV(job.Results)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSVFileName+`"`)
	w.Write(data)
}

// HandleDeleteJob handles DELETE /jobs/{job_id}
func (s *Server) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("job_id")
	err := s.jobs.Delete(r.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		s.log.Errorf("Failed to delete job %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "job store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
