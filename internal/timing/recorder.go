// Package timing collects elapsed durations of database-facing operations
// under string tags and summarizes them.
package timing

import (
	"slices"
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

// Tags used by the backend decorator and the orchestrator.
const (
	TagExecute      = "execute"
	TagCommit       = "commit"
	TagBranchCreate = "branch-create"
	TagConnect      = "connect"
)

// Collector receives elapsed durations.
type Collector interface {
	Collect(elapsed time.Duration, tag string)
}

// Recorder keeps every duration in an unlabeled bucket and, when a tag is
// given, in that tag's bucket as well. Buckets hold seconds. Tags are
// reported in first-seen order.
//
// A Recorder is not safe for concurrent use; the benchmark driver is
// single-threaded.
type Recorder struct {
	all   []float64
	byTag *orderedmap.OrderedMap[string, []float64]
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{byTag: orderedmap.NewOrderedMap[string, []float64]()}
}

// Collect implements Collector.
func (r *Recorder) Collect(elapsed time.Duration, tag string) {
	r.CollectSeconds(elapsed.Seconds(), tag)
}

// CollectSeconds appends a duration expressed in seconds.
func (r *Recorder) CollectSeconds(seconds float64, tag string) {
	r.all = append(r.all, seconds)
	if tag == "" {
		return
	}
	bucket, _ := r.byTag.Get(tag)
	r.byTag.Set(tag, append(bucket, seconds))
}

// Report returns a copy of the tag's bucket, or of the unlabeled bucket when
// tag is empty. An unknown tag yields an empty slice.
func (r *Recorder) Report(tag string) []float64 {
	if tag == "" {
		return slices.Clone(r.all)
	}
	bucket, ok := r.byTag.Get(tag)
	if !ok {
		return []float64{}
	}
	return slices.Clone(bucket)
}

// Tags returns the tags seen since the last Reset.
func (r *Recorder) Tags() []string {
	return slices.Clone(r.byTag.Keys())
}

// Reset clears every bucket. Call it between benchmark phases.
func (r *Recorder) Reset() {
	r.all = nil
	r.byTag = orderedmap.NewOrderedMap[string, []float64]()
}

// Time runs fn and collects its elapsed time under tag, whether or not fn
// fails.
func Time(c Collector, tag string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.Collect(time.Since(start), tag)
	return err
}
