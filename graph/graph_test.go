package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *Node {
	root := NewNode("merge fragment")
	root.AddField("upstreams", "2")

	group := NewNode("group")
	group.AddField("granularity", "cluster")
	group.AddChild("key_0", NewNode("reference"))
	root.AddChild("projection_0", group)

	topn := NewNode("topn")
	topn.AddField("limit", "10")
	root.AddChild("projection_1", topn)
	return root
}

func TestShow(t *testing.T) {
	g, err := Show(testTree())
	require.NoError(t, err)

	out := g.String()
	assert.Contains(t, out, "merge_fragment_0")
	assert.Contains(t, out, "group_0")
	assert.Contains(t, out, "reference_0")
	assert.Contains(t, out, "topn_0")
	assert.Contains(t, out, "rankdir=LR")
}

func TestShowEscapesLabels(t *testing.T) {
	node := NewNode("literal")
	node.AddField("value", "'{a|b}'")

	g, err := Show(node)
	require.NoError(t, err)
	assert.Contains(t, g.String(), `'\{a\|b\}'`)
}

func TestWriteText(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteText(&sb, testTree()))

	assert.Equal(t, `merge fragment [upstreams=2]
  projection_0: group [granularity=cluster]
    key_0: reference
  projection_1: topn [limit=10]
`, sb.String())
}
