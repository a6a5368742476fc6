package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = "../config/fixtures/example.yaml"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--config", testConfig))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestEncodeDescribeRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fragment.bin")

	_, err := run(t, "", "encode", "--upstreams", "3", "--nodes", "n1,n2,n3", "--out", path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	out, err := run(t, "", "describe", "--hex=false", path)
	require.NoError(t, err)
	assert.Contains(t, out, "n1, n2, n3")
	assert.Contains(t, out, "[string, long]")
	assert.Contains(t, out, "group")
	assert.Contains(t, out, "topn")

	out, err = run(t, "", "describe", "--hex=false", "--explain", "--dot=false", "--dump=false", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "merge fragment"), out)

	out, err = run(t, "", "roundtrip", "--hex=false", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok:")
}

func TestDescribeHexFromStdin(t *testing.T) {
	frame, err := run(t, "", "encode", "--out", "", "--limit=-1")
	require.NoError(t, err)

	out, err := run(t, frame, "describe", "--hex", "--explain=false", "--dot", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
}

func TestDescribeRejectsGarbage(t *testing.T) {
	_, err := run(t, "zz", "describe", "--hex", "-")
	assert.Error(t, err)
}

func TestReceive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fragment.bin")
	_, err := run(t, "", "encode", "--out", path)
	require.NoError(t, err)

	out, err := run(t, "", "receive", "--hex=false", path, path)
	require.NoError(t, err)
	assert.Contains(t, out, "distplan_execution_duration_ms")
	assert.Contains(t, out, "count=2")
	assert.Contains(t, out, "labels=group,ordered_topn")
}

func TestCatalog(t *testing.T) {
	out, err := run(t, "", "catalog", "--list", "constraints", "../catalog/fixtures/catalog.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "users_pk")
	assert.Contains(t, out, "doc_metrics_ts_not_null")

	out, err = run(t, "", "catalog", "--list", "columns", "../catalog/fixtures/catalog.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "address['city']")

	out, err = run(t, "", "catalog", "--list", "partitions", "../catalog/fixtures/catalog.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "events_202601")

	_, err = run(t, "", "catalog", "--list", "tables", "../catalog/fixtures/catalog.yaml")
	assert.Error(t, err)
}

func TestSampleFragment(t *testing.T) {
	f, err := sampleFragment(2, []string{"a", "b"}, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Upstreams())
	assert.Len(t, f.Projections(), 2)

	_, err = sampleFragment(0, nil, 5)
	assert.Error(t, err)
	_, err = sampleFragment(1, nil, -5)
	assert.Error(t, err)
}
