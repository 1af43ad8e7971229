// Package mock holds test doubles for the opdk interfaces.
package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/biocache/opdk"
)

var _ opdk.Statter = &RecordingStatter{}

// RecordingStatter is used for testing. It records counts and is safe for
// concurrent use, so it can be shared by several workers.
type RecordingStatter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// Count implements Count.
func (r *RecordingStatter) Count(name string, value int64, rate float64, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int64)
	}
	r.counts[name] += value
}

// Get returns the count recorded under name.
func (r *RecordingStatter) Get(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// Counts returns a copy of every count.
func (r *RecordingStatter) Counts() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make(map[string]int64, len(r.counts))
	for k, v := range r.counts {
		ret[k] = v
	}
	return ret
}

// Gauge implements Gauge.
func (r *RecordingStatter) Gauge(name string, value float64, rate float64, tags ...string) {}

// Histogram implements Histogram.
func (r *RecordingStatter) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set implements Set.
func (r *RecordingStatter) Set(name string, value string, rate float64, tags ...string) {}

// Timing implements Timing.
func (r *RecordingStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {}

// RecordingLogger is a opdk.Logger which keeps every formatted line.
type RecordingLogger struct {
	mu    sync.Mutex
	lines []string
}

// Printf implements opdk.Logger.
func (l *RecordingLogger) Printf(format string, v ...interface{}) {
	l.record(format, v)
}

// Debugf implements opdk.Logger.
func (l *RecordingLogger) Debugf(format string, v ...interface{}) {
	l.record(format, v)
}

func (l *RecordingLogger) record(format string, v []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

// Lines returns a copy of the logged lines.
func (l *RecordingLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
