package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClassification(t *testing.T) {
	c := NewClassification("SELECT", "topn", "group", "topn")
	assert.Equal(t, []string{"group", "topn"}, c.Labels)
	assert.Equal(t, "SELECT[group,topn]", c.String())
}

func TestRecordValue(t *testing.T) {
	m, err := NewClassifiedMetrics()
	require.NoError(t, err)

	selects := NewClassification("SELECT", "group")
	for i := 1; i <= 100; i++ {
		m.RecordValue(selects, time.Duration(i)*time.Millisecond)
	}

	snapshots := m.Snapshot()
	require.Len(t, snapshots, 1)
	s := snapshots[0]
	assert.Equal(t, selects, s.Classification)
	assert.Equal(t, int64(100), s.Count)
	assert.Equal(t, int64(5050), s.SumMillis)
	assert.Equal(t, int64(0), s.FailedCount)
	assert.InEpsilon(t, 50, s.P50, 0.05)
	assert.InEpsilon(t, 95, s.P95, 0.05)
	assert.InEpsilon(t, 99, s.P99, 0.05)
	assert.Equal(t, float64(100), s.Max)
}

func TestRecordValueClamps(t *testing.T) {
	m, err := NewClassifiedMetrics(WithHighestTrackable(time.Second))
	require.NoError(t, err)

	c := NewClassification("INSERT")
	m.RecordValue(c, time.Minute)
	m.RecordValue(c, -time.Second)

	snapshots := m.Snapshot()
	require.Len(t, snapshots, 1)
	assert.Equal(t, int64(2), snapshots[0].Count)
	assert.Equal(t, int64(60000), snapshots[0].SumMillis)
	assert.Equal(t, float64(1000), snapshots[0].Max)
}

func TestRecordFailedExecution(t *testing.T) {
	m, err := NewClassifiedMetrics()
	require.NoError(t, err)

	c := NewClassification("SELECT")
	m.RecordValue(c, time.Millisecond)
	m.RecordFailedExecution(c, 3*time.Millisecond)
	m.RecordFailedExecution(c, 5*time.Millisecond)

	s := m.Snapshot()[0]
	assert.Equal(t, int64(3), s.Count)
	assert.Equal(t, int64(2), s.FailedCount)
	assert.Equal(t, int64(9), s.SumMillis)
}

func TestSnapshotOrder(t *testing.T) {
	m, err := NewClassifiedMetrics()
	require.NoError(t, err)

	m.RecordValue(NewClassification("SELECT", "topn"), time.Millisecond)
	m.RecordValue(NewClassification("INSERT"), time.Millisecond)
	m.RecordValue(NewClassification("SELECT", "group"), time.Millisecond)

	var got []string
	for _, s := range m.Snapshot() {
		got = append(got, s.Classification.String())
	}
	assert.Equal(t, []string{"INSERT[]", "SELECT[group]", "SELECT[topn]"}, got)
}

func TestClassificationsWithSeparatorsStayApart(t *testing.T) {
	m, err := NewClassifiedMetrics()
	require.NoError(t, err)

	joined := NewClassification("SELECT", "group,topn")
	split := NewClassification("SELECT", "group", "topn")
	bracket := NewClassification("SELECT[group]")
	m.RecordValue(joined, time.Millisecond)
	m.RecordValue(split, 2*time.Millisecond)
	m.RecordValue(bracket, 3*time.Millisecond)
	m.RecordValue(NewClassification("SELECT", "group]"), 4*time.Millisecond)

	snapshots := m.Snapshot()
	require.Len(t, snapshots, 4)
	for _, s := range snapshots {
		assert.Equal(t, int64(1), s.Count, s.Classification.String())
	}

	expected := `
# HELP distplan_execution_failed_total Number of failed fragment executions.
# TYPE distplan_execution_failed_total counter
distplan_execution_failed_total{labels="",type="SELECT[group]"} 0
distplan_execution_failed_total{labels="group,topn",type="SELECT"} 0
distplan_execution_failed_total{labels="group\\,topn",type="SELECT"} 0
distplan_execution_failed_total{labels="group]",type="SELECT"} 0
`
	require.NoError(t, testutil.CollectAndCompare(NewCollector(m), strings.NewReader(expected), "distplan_execution_failed_total"))
}

func TestReset(t *testing.T) {
	m, err := NewClassifiedMetrics()
	require.NoError(t, err)

	m.RecordFailedExecution(NewClassification("SELECT"), time.Millisecond)
	m.Reset()
	assert.Empty(t, m.Snapshot())
}

func TestConcurrentRecording(t *testing.T) {
	m, err := NewClassifiedMetrics()
	require.NoError(t, err)

	c := NewClassification("SELECT")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordValue(c, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	s := m.Snapshot()[0]
	assert.Equal(t, int64(800), s.Count)
	assert.Equal(t, int64(800), s.SumMillis)
}

func TestCollector(t *testing.T) {
	m, err := NewClassifiedMetrics()
	require.NoError(t, err)

	c := NewClassification("SELECT", "group")
	m.RecordValue(c, 2*time.Millisecond)
	m.RecordFailedExecution(c, 4*time.Millisecond)

	collector := NewCollector(m)
	assert.Equal(t, 3, testutil.CollectAndCount(collector))

	expected := `
# HELP distplan_execution_failed_total Number of failed fragment executions.
# TYPE distplan_execution_failed_total counter
distplan_execution_failed_total{labels="group",type="SELECT"} 1
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "distplan_execution_failed_total"))
}
