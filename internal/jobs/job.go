// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package jobs

import (
	"errors"
	"time"

	"github.com/form019-finder/internal/form019"
)

var (
	ErrNotFound        = errors.New("job not found")
	ErrJobFinished     = errors.New("job already finished")
	ErrInvalidProgress = errors.New("invalid job progress")
	ErrDuplicateJob    = errors.New("job already exists")
)

// Job is the state of one scan. Total stays 0 until the file list is known,
// Processed never exceeds Total, and Done is terminal.
type Job struct {
	ID         string                   `json:"id"`
	Total      int                      `json:"total"`
	Processed  int                      `json:"processed"`
	Done       bool                     `json:"done"`
	Error      string                   `json:"error,omitempty"`
	Results    []form019.MeasurementRow `json:"results"`
	Export     []byte                   `json:"export,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// Progress is the polling view of a job
type Progress struct {
	Total     int     `json:"total"`
	Processed int     `json:"processed"`
	Done      bool    `json:"done"`
	Error     *string `json:"error"`
}

// Progress returns the counters and error of the job; Error is nil when the job has not failed
func (j Job) Progress() Progress {
	p := Progress{Total: j.Total, Processed: j.Processed, Done: j.Done}
	if j.Error != "" {
		msg := j.Error
		p.Error = &msg
	}
	return p
}

// clone returns a deep copy so callers never share slices with the store
func (j *Job) clone() *Job {
	c := *j
	if j.Results != nil {
		c.Results = make([]form019.MeasurementRow, len(j.Results))
		copy(c.Results, j.Results)
	}
	if j.Export != nil {
		c.Export = make([]byte, len(j.Export))
		copy(c.Export, j.Export)
	}
	return &c
}

// expired reports whether a finished job has outlived retention
func (j *Job) expired(now time.Time, retention time.Duration) bool {
	return j.Done && retention > 0 && now.Sub(j.FinishedAt) > retention
}
