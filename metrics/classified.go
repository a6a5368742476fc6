package metrics

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

const (
	DefaultHighestTrackable  = 10 * time.Minute
	DefaultSignificantDigits = 3
)

// Classification groups executions whose latencies are tracked together,
// e.g. all SELECTs running a group and a topn stage.
type Classification struct {
	Type   string
	Labels []string
}

// NewClassification sorts and deduplicates the labels.
func NewClassification(typ string, labels ...string) Classification {
	sorted := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		sorted = append(sorted, label)
	}
	sort.Strings(sorted)
	return Classification{
		Type:   typ,
		Labels: sorted,
	}
}

func (c Classification) String() string {
	return c.Type + "[" + strings.Join(c.Labels, ",") + "]"
}

// key identifies the classification unambiguously, whatever characters the labels contain.
func (c Classification) key() string {
	var sb strings.Builder
	sb.WriteString(c.Type)
	for _, label := range c.Labels {
		sb.WriteByte(0)
		sb.WriteString(label)
	}
	return sb.String()
}

func (c Classification) less(other Classification) bool {
	return c.key() < other.key()
}

type Option func(options *options)

type options struct {
	highestTrackable  time.Duration
	significantDigits int
}

func WithHighestTrackable(d time.Duration) Option {
	return func(options *options) {
		if d > 0 {
			options.highestTrackable = d
		}
	}
}

// WithSignificantDigits sets the precision of recorded quantiles: n digits give a relative accuracy of 10^-n.
func WithSignificantDigits(n int) Option {
	return func(options *options) {
		if n > 0 {
			options.significantDigits = n
		}
	}
}

// ClassifiedMetrics tracks execution latencies and failures per classification.
// It is safe for concurrent use.
type ClassifiedMetrics struct {
	highestTrackable time.Duration
	relativeAccuracy float64

	mu     sync.RWMutex
	tracks map[string]*track
}

type track struct {
	classification Classification

	mu     sync.Mutex
	sketch *ddsketch.DDSketchWithExactSummaryStatistics

	sumMillis atomic.Int64
	failed    atomic.Int64
}

func NewClassifiedMetrics(opts ...Option) (*ClassifiedMetrics, error) {
	options := &options{
		highestTrackable:  DefaultHighestTrackable,
		significantDigits: DefaultSignificantDigits,
	}
	for _, opt := range opts {
		opt(options)
	}

	relativeAccuracy := math.Pow10(-options.significantDigits)
	// Fail early rather than on the first record.
	if _, err := ddsketch.NewDefaultDDSketchWithExactSummaryStatistics(relativeAccuracy); err != nil {
		return nil, errors.Wrapf(err, "invalid relative accuracy %f", relativeAccuracy)
	}

	return &ClassifiedMetrics{
		highestTrackable: options.highestTrackable,
		relativeAccuracy: relativeAccuracy,
		tracks:           make(map[string]*track),
	}, nil
}

func (m *ClassifiedMetrics) getTrack(c Classification) *track {
	key := c.key()

	m.mu.RLock()
	t, ok := m.tracks[key]
	m.mu.RUnlock()
	if ok {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tracks[key]; ok {
		return t
	}
	sketch, err := ddsketch.NewDefaultDDSketchWithExactSummaryStatistics(m.relativeAccuracy)
	if err != nil {
		panic(err)
	}
	t = &track{
		classification: c,
		sketch:         sketch,
	}
	m.tracks[key] = t
	return t
}

// RecordValue records the duration of a successful execution.
// The sketch records durations clamped to [0, highest trackable], the sum records them unclamped.
func (m *ClassifiedMetrics) RecordValue(c Classification, d time.Duration) {
	m.record(c, d)
}

// RecordFailedExecution records the duration of an execution which failed.
func (m *ClassifiedMetrics) RecordFailedExecution(c Classification, d time.Duration) {
	m.record(c, d).failed.Inc()
}

func (m *ClassifiedMetrics) record(c Classification, d time.Duration) *track {
	t := m.getTrack(c)
	if d < 0 {
		d = 0
	}
	t.sumMillis.Add(d.Milliseconds())

	clamped := d
	if clamped > m.highestTrackable {
		clamped = m.highestTrackable
	}
	t.mu.Lock()
	err := t.sketch.Add(float64(clamped.Milliseconds()))
	t.mu.Unlock()
	if err != nil {
		panic(err)
	}
	return t
}

// Snapshot is the state of a single classification, with durations in milliseconds.
type Snapshot struct {
	Classification Classification
	Count          int64
	SumMillis      int64
	FailedCount    int64
	P50            float64
	P95            float64
	P99            float64
	Max            float64
}

// Snapshot returns the state of all classifications, ordered by classification.
func (m *ClassifiedMetrics) Snapshot() []Snapshot {
	m.mu.RLock()
	tracks := make([]*track, 0, len(m.tracks))
	for _, t := range m.tracks {
		tracks = append(tracks, t)
	}
	m.mu.RUnlock()

	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].classification.less(tracks[j].classification)
	})

	out := make([]Snapshot, len(tracks))
	for i, t := range tracks {
		out[i] = t.snapshot()
	}
	return out
}

func (t *track) snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := Snapshot{
		Classification: t.classification,
		Count:          int64(t.sketch.GetCount()),
		SumMillis:      t.sumMillis.Load(),
		FailedCount:    t.failed.Load(),
	}
	if t.sketch.IsEmpty() {
		return out
	}
	quantiles, err := t.sketch.GetValuesAtQuantiles([]float64{0.5, 0.95, 0.99})
	if err == nil {
		out.P50, out.P95, out.P99 = quantiles[0], quantiles[1], quantiles[2]
	}
	if maxValue, err := t.sketch.GetMaxValue(); err == nil {
		out.Max = maxValue
	}
	return out
}

// Reset drops all recorded data.
func (m *ClassifiedMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = make(map[string]*track)
}
