// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/form019-finder/internal/export"
	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/jobs"
	"github.com/form019-finder/internal/logger"
	"github.com/form019-finder/internal/notify"
	"github.com/form019-finder/internal/walker"
)

// Request describes one scan
type Request struct {
	BaseDir    string
	Units      []string
	PartType   string
	Thresholds form019.Thresholds
}

// FileLister enumerates candidate files
type FileLister interface {
	Walk(root string, units []string) ([]walker.Candidate, error)
}

// FileScanner extracts candidate rows from one file
type FileScanner interface {
	ScanFile(path, partType, boundary string) []form019.MeasurementRow
}

// Options tune the orchestrator
type Options struct {
	// KeepPartialResults keeps rows gathered before a failure instead of discarding them
	KeepPartialResults bool
}

// Orchestrator runs each scan on its own goroutine and reports progress to the tracker
type Orchestrator struct {
	tracker     *jobs.Tracker
	lister      FileLister
	scanner     FileScanner
	notifier    notify.Notifier
	keepPartial atomic.Bool
	wg          sync.WaitGroup
	log         *logger.Logger
}

// New creates an orchestrator. notifier may be nil.
func New(tracker *jobs.Tracker, lister FileLister, scanner FileScanner, notifier notify.Notifier, opts Options, log *logger.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	o := &Orchestrator{
		tracker:  tracker,
		lister:   lister,
		scanner:  scanner,
		notifier: notifier,
		log:      log,
	}
	o.keepPartial.Store(opts.KeepPartialResults)
	return o
}

// SetKeepPartialResults changes the failure policy for scans started afterwards
func (o *Orchestrator) SetKeepPartialResults(keep bool) {
	o.keepPartial.Store(keep)
}

// Start creates a job and scans in the background. It returns as soon as the
// job exists.
func (o *Orchestrator) Start(ctx context.Context, req Request) (string, error) {
	id, err := o.tracker.Create(ctx)
	if err != nil {
		return "", err
	}

	keepPartial := o.keepPartial.Load()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		// Scans outlive the request that started them
		o.run(context.Background(), id, req, keepPartial)
	}()

	o.log.Printf("Scan %s started: base=%s units=%v part=%s", id, req.BaseDir, req.Units, req.PartType)
	return id, nil
}

// Run scans synchronously for an existing job
func (o *Orchestrator) Run(ctx context.Context, id string, req Request) {
	o.run(ctx, id, req, o.keepPartial.Load())
}

// Wait blocks until every started scan has finished or ctx is done
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) run(ctx context.Context, id string, req Request, keepPartial bool) {
	var results []form019.MeasurementRow

	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, id, fmt.Sprintf("internal error: %v", r), results, keepPartial)
		}
	}()

	if err := o.scan(ctx, id, req, &results); err != nil {
		o.fail(ctx, id, err.Error(), results, keepPartial)
	}
}

func (o *Orchestrator) scan(ctx context.Context, id string, req Request, results *[]form019.MeasurementRow) error {
	candidates, err := o.lister.Walk(req.BaseDir, req.Units)
	if err != nil {
		return err
	}
	if err := o.tracker.SetTotal(ctx, id, len(candidates)); err != nil {
		return fmt.Errorf("failed to record total: %w", err)
	}
	o.log.Printf("Scan %s: %d candidate file(s)", id, len(candidates))

	for _, c := range candidates {
		rows := o.scanner.ScanFile(c.Path, req.PartType, c.UnitDir)
		*results = append(*results, req.Thresholds.Filter(rows)...)

		if err := o.tracker.AddProcessed(ctx, id, 1); err != nil {
			return fmt.Errorf("failed to record progress: %w", err)
		}
	}

	if err := o.tracker.MarkDone(ctx, id, *results, export.CSV(*results)); err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}

	o.log.Printf("Scan %s complete: %d matching row(s)", id, len(*results))
	o.notifier.ScanFinished(id, len(*results), "")
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, id, msg string, results []form019.MeasurementRow, keepPartial bool) {
	var partial []form019.MeasurementRow
	if keepPartial {
		partial = results
	}

	o.log.Errorf("Scan %s failed: %s", id, msg)
	if err := o.tracker.MarkError(ctx, id, msg, partial); err != nil {
		o.log.Warnf("Scan %s: could not record failure: %v", id, err)
		return
	}
	o.notifier.ScanFinished(id, len(partial), msg)
}
