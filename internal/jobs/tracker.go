// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/form019-finder/internal/events"
	"github.com/form019-finder/internal/form019"
	"github.com/google/uuid"
)

// Publisher receives an event after each successful job change
type Publisher interface {
	Broadcast(events.Event)
}

// Tracker enforces the job lifecycle on top of a Store
type Tracker struct {
	store Store
	pub   Publisher
	now   func() time.Time
}

// NewTracker creates a tracker. pub may be nil.
func NewTracker(store Store, pub Publisher) *Tracker {
	return &Tracker{store: store, pub: pub, now: time.Now}
}

// Create registers a new job with zeroed counters and returns its id
func (t *Tracker) Create(ctx context.Context) (string, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Results:   []form019.MeasurementRow{},
		CreatedAt: t.now(),
	}
	if err := t.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	t.publish(events.TypeProgress, *job)
	return job.ID, nil
}

// SetTotal records the number of files found by enumeration
func (t *Tracker) SetTotal(ctx context.Context, id string, total int) error {
	return t.update(ctx, id, events.TypeProgress, func(j *Job) error {
		if total < 0 || total < j.Processed {
			return fmt.Errorf("%w: total %d below processed %d", ErrInvalidProgress, total, j.Processed)
		}
		j.Total = total
		return nil
	})
}

// AddProcessed advances the processed counter by delta
func (t *Tracker) AddProcessed(ctx context.Context, id string, delta int) error {
	return t.update(ctx, id, events.TypeProgress, func(j *Job) error {
		next := j.Processed + delta
		if delta < 0 || next > j.Total {
			return fmt.Errorf("%w: processed %d of %d", ErrInvalidProgress, next, j.Total)
		}
		j.Processed = next
		return nil
	})
}

// MarkDone stores the results and export payload and finishes the job
func (t *Tracker) MarkDone(ctx context.Context, id string, results []form019.MeasurementRow, export []byte) error {
	if results == nil {
		results = []form019.MeasurementRow{}
	}
	return t.update(ctx, id, events.TypeDone, func(j *Job) error {
		j.Results = results
		j.Export = export
		j.Done = true
		j.FinishedAt = t.now()
		return nil
	})
}

// MarkError records msg and finishes the job. partial replaces the results
// when non-nil; otherwise results are cleared.
func (t *Tracker) MarkError(ctx context.Context, id, msg string, partial []form019.MeasurementRow) error {
	if msg == "" {
		msg = "scan failed"
	}
	return t.update(ctx, id, events.TypeError, func(j *Job) error {
		j.Error = msg
		j.Results = partial
		if j.Results == nil {
			j.Results = []form019.MeasurementRow{}
		}
		j.Export = nil
		j.Done = true
		j.FinishedAt = t.now()
		return nil
	})
}

// Get returns a snapshot of the job
func (t *Tracker) Get(ctx context.Context, id string) (Job, error) {
	return t.store.Get(ctx, id)
}

// Delete removes the job
func (t *Tracker) Delete(ctx context.Context, id string) error {
	if err := t.store.Delete(ctx, id); err != nil {
		return err
	}
	t.publish(events.TypeDeleted, Job{ID: id, Done: true})
	return nil
}

func (t *Tracker) update(ctx context.Context, id, eventType string, fn func(*Job) error) error {
	job, err := t.store.Update(ctx, id, func(j *Job) error {
		if j.Done {
			return ErrJobFinished
		}
		return fn(j)
	})
	if err != nil {
		return err
	}
	t.publish(eventType, job)
	return nil
}

func (t *Tracker) publish(eventType string, j Job) {
	if t.pub == nil {
		return
	}
	t.pub.Broadcast(events.Event{
		Type:      eventType,
		JobID:     j.ID,
		Timestamp: t.now(),
		Total:     j.Total,
		Processed: j.Processed,
		Done:      j.Done,
		Error:     j.Error,
	})
}
