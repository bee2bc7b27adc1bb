// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package events

import (
	"sync"
	"time"
)

// Event types
const (
	TypeProgress = "progress"
	TypeDone     = "done"
	TypeError    = "error"
	TypeDeleted  = "deleted"
)

// Event reports a change to one scan job
type Event struct {
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Done      bool      `json:"done"`
	Error     string    `json:"error,omitempty"`
}

// Broadcaster fans job events out to subscribers
type Broadcaster struct {
	subscribers map[chan Event]string
	mu          sync.RWMutex
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]string),
	}
}

// Subscribe returns a channel receiving events for jobID, or for every job
// when jobID is empty
func (eb *Broadcaster) Subscribe(jobID string) chan Event {
	ch := make(chan Event, 32)
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[ch] = jobID
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (eb *Broadcaster) Unsubscribe(ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if _, ok := eb.subscribers[ch]; ok {
		delete(eb.subscribers, ch)
		close(ch)
	}
}

// Broadcast sends an event to all matching subscribers
func (eb *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for ch, jobID := range eb.subscribers {
		if jobID != "" && jobID != event.JobID {
			continue
		}
		select {
		case ch <- event:
		default:
			// Channel is full, skip this subscriber
		}
	}
}

// Subscribers returns the number of open subscriptions
func (eb *Broadcaster) Subscribers() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}
