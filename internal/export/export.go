// Package export turns completed lesson records into shareable artifacts.
// Exporters register per lesson ID; completion looks one up and invokes
// it, so new lessons gain artifacts without touching the orchestration.
package export

import (
	"fmt"
	"sort"
	"sync"
)

// StepRecord is the read-only projection of one completed lesson step,
// joined from the learner's submission and the step definition.
type StepRecord struct {
	StepName      string
	UserInput     string
	Goals         []string
	BestPractices []string
}

// Error wraps any I/O or rendering failure during artifact generation.
type Error struct {
	LessonID string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export artifact for lesson %s: %v", e.LessonID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Exporter produces an artifact from a completed lesson's step records
// and returns the path it was written to.
type Exporter interface {
	Export(lessonID string, records []StepRecord) (string, error)
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(lessonID string, records []StepRecord) (string, error)

func (f ExporterFunc) Export(lessonID string, records []StepRecord) (string, error) {
	return f(lessonID, records)
}

// Registry maps lesson IDs to their exporters.
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]Exporter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{exporters: make(map[string]Exporter)}
}

// Register binds an exporter to a lesson ID, replacing any previous binding.
func (r *Registry) Register(lessonID string, e Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters[lessonID] = e
}

// Lookup returns the exporter for a lesson ID. Absence is not an error:
// lessons without exporters simply complete without an artifact.
func (r *Registry) Lookup(lessonID string) (Exporter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exporters[lessonID]
	return e, ok
}

// LessonIDs returns the registered lesson IDs, sorted.
func (r *Registry) LessonIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.exporters))
	for id := range r.exporters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
