// Package state tracks each extension through the configure/build phases
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status is the phase an extension is in
type Status string

const (
	StatusDeclared    Status = "declared"
	StatusConfiguring Status = "configuring"
	StatusConfigured  Status = "configured"
	StatusBuilding    Status = "building"
	StatusBuilt       Status = "built"
	StatusInstalled   Status = "installed"
	StatusFailed      Status = "failed"
)

// ErrInvalidTransition indicates a move the state machine does not allow
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[Status][]Status{
	StatusDeclared:    {StatusConfiguring, StatusInstalled, StatusFailed},
	StatusConfiguring: {StatusConfigured, StatusFailed},
	StatusConfigured:  {StatusBuilding},
	StatusBuilding:    {StatusBuilt, StatusFailed},
}

// Terminal reports whether no further transition is possible from s.
// Configured counts as terminal only for dry runs, so it is not listed here.
func (s Status) Terminal() bool {
	return s == StatusBuilt || s == StatusInstalled || s == StatusFailed
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ExtensionState is the recorded progress of one extension in a run
type ExtensionState struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	WorkDir    string        `json:"workDir,omitempty"`
	Artifact   string        `json:"artifact,omitempty"`
	LastError  string        `json:"lastError,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Duration   time.Duration `json:"duration"`
	DryRun     bool          `json:"dryRun,omitempty"`
	Transition []Status      `json:"transitions"`
}

// Report is the JSON document written at the end of a run
type Report struct {
	RunID      string            `json:"runId"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Extensions []*ExtensionState `json:"extensions"`
}

// Tracker records the state of every extension of one run.
// A fresh Tracker is used per run; nothing carries over between runs.
type Tracker struct {
	mu     sync.RWMutex
	runID  string
	start  time.Time
	order  []string
	states map[string]*ExtensionState
	now    func() time.Time
}

// NewTracker creates an empty tracker for a run
func NewTracker(runID string) *Tracker {
	return &Tracker{
		runID:  runID,
		start:  time.Now(),
		states: make(map[string]*ExtensionState),
		now:    time.Now,
	}
}

// Reset forgets every extension and restarts the run clock
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = t.now()
	t.order = nil
	t.states = make(map[string]*ExtensionState)
}

// Declare registers an extension in the declared state
func (t *Tracker) Declare(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.states[name]; ok {
		return
	}
	now := t.now()
	t.order = append(t.order, name)
	t.states[name] = &ExtensionState{
		Name:       name,
		Status:     StatusDeclared,
		StartedAt:  now,
		UpdatedAt:  now,
		Transition: []Status{StatusDeclared},
	}
}

// Transition moves an extension to the next status
func (t *Tracker) Transition(name string, to Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[name]
	if !ok {
		return fmt.Errorf("extension %q was never declared", name)
	}
	if !CanTransition(st.Status, to) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, st.Status, to, name)
	}

	now := t.now()
	st.Status = to
	st.UpdatedAt = now
	st.Duration = now.Sub(st.StartedAt)
	st.Transition = append(st.Transition, to)
	return nil
}

// Fail moves an extension to failed and records the error
func (t *Tracker) Fail(name string, cause error) error {
	if err := t.Transition(name, StatusFailed); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if cause != nil {
		t.states[name].LastError = cause.Error()
	}
	return nil
}

// Annotate records where an extension builds and where its artifact goes
func (t *Tracker) Annotate(name, workDir, artifact string, dryRun bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[name]; ok {
		st.WorkDir = workDir
		st.Artifact = artifact
		st.DryRun = dryRun
	}
}

// Get returns a copy of the state of one extension
func (t *Tracker) Get(name string) (ExtensionState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.states[name]
	if !ok {
		return ExtensionState{}, false
	}
	cp := *st
	cp.Transition = append([]Status(nil), st.Transition...)
	return cp, true
}

// Status returns the current status of one extension
func (t *Tracker) Status(name string) Status {
	st, ok := t.Get(name)
	if !ok {
		return ""
	}
	return st.Status
}

// Snapshot returns a report of all extensions in declaration order
func (t *Tracker) Snapshot() Report {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r := Report{
		RunID:      t.runID,
		StartedAt:  t.start,
		FinishedAt: t.now(),
		Extensions: make([]*ExtensionState, 0, len(t.order)),
	}
	for _, name := range t.order {
		cp := *t.states[name]
		cp.Transition = append([]Status(nil), t.states[name].Transition...)
		r.Extensions = append(r.Extensions, &cp)
	}
	return r
}

// WriteReport writes the run report to path atomically
func (t *Tracker) WriteReport(path string) error {
	data, err := json.MarshalIndent(t.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
