// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

// Package alert keeps the user-facing message bookkeeping that accompanies
// data-access operations. Alerts are either transient (held in memory and
// cleared whenever read) or flash (persisted in a session slot so they
// survive one request/response cycle until explicitly cleared).
package alert

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MatBedoyan/rowkeeper/session"
)

// Kind classifies an alert for presentation.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// Alert is a single kind/message pair.
type Alert struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// DefaultSlot is the session key flash alerts live under.
const DefaultSlot = "flash_alerts"

// Recorder accumulates alerts. Transient alerts live in the recorder
// itself; flash alerts are written through the injected session store so
// the mapper layer stays testable without a real session backend.
type Recorder struct {
	mu    sync.Mutex
	buf   []Alert
	store session.Store
	slot  string
}

// NewRecorder builds a recorder over the given session store. A nil store
// is allowed; flash alerts then degrade to transient ones.
func NewRecorder(store session.Store) *Recorder {
	return &Recorder{store: store, slot: DefaultSlot}
}

// Add records a transient alert.
func (r *Recorder) Add(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, Alert{Kind: kind, Message: message})
}

// AddFlash appends an alert to the session flash slot.
func (r *Recorder) AddFlash(kind Kind, message string) error {
	if r.store == nil {
		r.Add(kind, message)
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	alerts, err := r.readFlash()
	if err != nil {
		return err
	}
	alerts = append(alerts, Alert{Kind: kind, Message: message})
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("alert: encode flash slot: %w", err)
	}
	if err := r.store.Set(r.slot, data); err != nil {
		return fmt.Errorf("alert: write flash slot: %w", err)
	}
	return nil
}

// Flash returns the current flash alerts without clearing them.
func (r *Recorder) Flash() ([]Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readFlash()
}

// TakeTransient returns the buffered transient alerts and clears the
// buffer; transient alerts never survive a read.
func (r *Recorder) TakeTransient() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.buf
	r.buf = nil
	return out
}

// ClearFlash removes the session flash slot.
func (r *Recorder) ClearFlash() error {
	if r.store == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Delete(r.slot); err != nil {
		return fmt.Errorf("alert: clear flash slot: %w", err)
	}
	return nil
}

// AllAndClear merges flash and transient alerts into one ordered sequence,
// flash first, and clears both stores. This is the canonical one-shot read;
// the other getters are non-destructive.
func (r *Recorder) AllAndClear() ([]Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flash, err := r.readFlash()
	if err != nil {
		return nil, err
	}
	if r.store != nil {
		if err := r.store.Delete(r.slot); err != nil {
			return nil, fmt.Errorf("alert: clear flash slot: %w", err)
		}
	}

	out := make([]Alert, 0, len(flash)+len(r.buf))
	out = append(out, flash...)
	out = append(out, r.buf...)
	r.buf = nil
	return out, nil
}

// readFlash decodes the flash slot. Callers hold r.mu.
func (r *Recorder) readFlash() ([]Alert, error) {
	if r.store == nil {
		return nil, nil
	}
	data, ok, err := r.store.Get(r.slot)
	if err != nil {
		return nil, fmt.Errorf("alert: read flash slot: %w", err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var alerts []Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("alert: decode flash slot: %w", err)
	}
	return alerts, nil
}
