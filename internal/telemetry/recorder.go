package telemetry

import (
	"strings"
	"sync"
)

// Recorder is an API that keeps every report in memory so tests can assert on them.
type Recorder struct {
	mu       sync.Mutex
	broken   []string
	warnings []string
	debug    []string
	counts   map[string]int64
}

func NewRecorder() *Recorder {
	return &Recorder{counts: map[string]int64{}}
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broken = append(r.broken, id)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, id)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debug = append(r.debug, msg)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[id] = count
}

// Broken returns the ids of every ReportBroken call in order.
func (r *Recorder) Broken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.broken...)
}

func (r *Recorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// DebugContains reports whether any debug message contains substr.
func (r *Recorder) DebugContains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.debug {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func (r *Recorder) Count(id string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.counts[id]
	return n, ok
}
