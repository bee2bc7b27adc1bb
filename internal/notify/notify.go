// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package notify

import (
	"fmt"
	"sync/atomic"

	"github.com/form019-finder/internal/logger"
	"github.com/gen2brain/beeep"
)

// Notifier is told when a scan job finishes
type Notifier interface {
	ScanFinished(jobID string, matches int, errMsg string)
}

// Nop discards notifications
type Nop struct{}

func (Nop) ScanFinished(string, int, string) {}

// Desktop raises an OS notification when a scan finishes. Failed scans use an alert.
type Desktop struct {
	enabled atomic.Bool
	notify  func(title, message string) error
	alert   func(title, message string) error
}

// NewDesktop creates a desktop notifier
func NewDesktop(enabled bool) *Desktop {
	d := &Desktop{
		notify: func(title, message string) error { return beeep.Notify(title, message, "") },
		alert:  func(title, message string) error { return beeep.Alert(title, message, "") },
	}
	d.enabled.Store(enabled)
	return d
}

// SetEnabled toggles notifications at runtime
func (d *Desktop) SetEnabled(enabled bool) {
	d.enabled.Store(enabled)
}

func (d *Desktop) ScanFinished(jobID string, matches int, errMsg string) {
	if !d.enabled.Load() {
		return
	}

	var err error
	if errMsg != "" {
		err = d.alert("FORM-019 scan failed", fmt.Sprintf("Job %s: %s", jobID, errMsg))
	} else {
		err = d.notify("FORM-019 scan complete", fmt.Sprintf("Job %s found %d matching row(s)", jobID, matches))
	}
	if err != nil {
		logger.Warnf("Failed to send OS notification: %v", err)
	}
}
