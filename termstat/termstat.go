// Package termstat provides a stats implementation which periodically logs the
// statistics to the given writer. It is meant to be used for watching an
// interpretation run at the terminal in lieu of an actual collector writing
// to an external tool like graphite or datadog. It provides stub
// implementations for some functionality.
package termstat

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector collects stats and prints them to the terminal
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	stats   []int64
	changed bool
	out     io.Writer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewCollector initializes and returns a new Collector which writes every
// interval until closed.
func NewCollector(out io.Writer, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ts := &Collector{
		indexes: make(map[string]int),
		out:     out,
		done:    make(chan struct{}),
	}
	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ts.write("\r")
			case <-ts.done:
				return
			}
		}
	}()
	return ts
}

// Count adds value to the named stat at the specified rate.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	t.lock.Lock()
	t.changed = true
	defer t.lock.Unlock()

	idx, ok := t.indexes[name]
	if !ok {
		idx = len(t.stats)
		t.stats = append(t.stats, 0)
		t.names = append(t.names, name)
		t.indexes[name] = idx
	}
	if rate < 1 {
		if rand.Float64() > rate {
			return
		}
	}
	t.stats[idx] += value
}

func (t *Collector) write(prefix string) {
	sb := strings.Builder{}
	t.lock.Lock()
	if !t.changed {
		t.lock.Unlock()
		return
	}
	for i := 0; i < len(t.stats); i++ {
		_, _ = sb.WriteString(fmt.Sprintf("%s: %d ", t.names[i], t.stats[i]))
	}
	t.changed = false
	fmt.Fprint(t.out, prefix+sb.String())
	t.lock.Unlock()
}

// Summary returns every stat as "name: value", sorted by name.
func (t *Collector) Summary() []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	ret := make([]string, len(t.names))
	for i, name := range t.names {
		ret[i] = fmt.Sprintf("%s: %d", name, t.stats[i])
	}
	sort.Strings(ret)
	return ret
}

// Close stops the periodic output and writes the final stats on their own
// line.
func (t *Collector) Close() error {
	close(t.done)
	t.wg.Wait()
	t.write("\r")
	fmt.Fprintln(t.out)
	return nil
}

// Gauge does nothing.
func (t *Collector) Gauge(name string, value float64, rate float64, tags ...string) {}

// Histogram does nothing.
func (t *Collector) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set does nothing.
func (t *Collector) Set(name string, value string, rate float64, tags ...string) {}

// Timing does nothing.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {}
