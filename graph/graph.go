package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

type Field struct {
	Name, Value string
}

type Child struct {
	Name string
	Node *Node
}

// Node is a plan element in an explain tree.
type Node struct {
	Name     string
	Fields   []Field
	Children []Child
}

func NewNode(name string) *Node {
	return &Node{
		Name: name,
	}
}

func (n *Node) AddField(name, value string) {
	n.Fields = append(n.Fields, Field{
		Name:  name,
		Value: value,
	})
}

func (n *Node) AddChild(name string, node *Node) {
	n.Children = append(n.Children, Child{
		Name: name,
		Node: node,
	})
}

// Show renders the tree as a left-to-right graphviz graph of record nodes.
func Show(node *Node) (*gographviz.Graph, error) {
	graph := gographviz.NewGraph()
	graph.Directed = true
	if err := graph.AddAttr("", "rankdir", "LR"); err != nil {
		return nil, errors.Wrap(err, "couldn't set graph direction")
	}
	builder := &graphBuilder{
		graph:        graph,
		nameCounters: make(map[string]int),
	}

	if _, err := builder.addNode(node); err != nil {
		return nil, err
	}

	return graph, nil
}

type graphBuilder struct {
	graph        *gographviz.Graph
	nameCounters map[string]int
}

func (gb *graphBuilder) getID(name string) string {
	count := gb.nameCounters[name]
	gb.nameCounters[name]++
	return fmt.Sprintf("%s_%d", sanitize(name), count)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)
}

// Record labels treat these as structure.
var labelEscaper = strings.NewReplacer(
	`{`, `\{`, `}`, `\}`,
	`|`, `\|`, `<`, `\<`, `>`, `\>`,
	`"`, `\"`,
)

func (gb *graphBuilder) addNode(node *Node) (string, error) {
	labelParts := []string{fmt.Sprintf("<f0> %s", labelEscaper.Replace(node.Name))}

	if len(node.Fields) > 0 {
		fields := make([]string, len(node.Fields))
		for i, field := range node.Fields {
			fields[i] = fmt.Sprintf("<%s> %s: %s", sanitize(field.Name), labelEscaper.Replace(field.Name), labelEscaper.Replace(field.Value))
		}
		labelParts = append(labelParts, strings.Join(fields, "|"))
	}
	if len(node.Children) > 0 {
		childPorts := make([]string, len(node.Children))
		for i, child := range node.Children {
			childPorts[i] = fmt.Sprintf("<%s> %s", sanitize(child.Name), labelEscaper.Replace(child.Name))
		}
		labelParts = append(labelParts, strings.Join(childPorts, "|"))
	}

	id := gb.getID(node.Name)
	err := gb.graph.AddNode("", id, map[string]string{
		"shape": "record",
		"label": fmt.Sprintf("\"{{%s}}\"", strings.Join(labelParts, "}|{")),
	})
	if err != nil {
		return "", errors.Wrapf(err, "couldn't add node %s", node.Name)
	}

	for _, child := range node.Children {
		childID, err := gb.addNode(child.Node)
		if err != nil {
			return "", err
		}
		if err := gb.graph.AddPortEdge(id, sanitize(child.Name), childID, "", true, map[string]string{}); err != nil {
			return "", errors.Wrapf(err, "couldn't add edge %s -> %s", id, childID)
		}
	}
	return id, nil
}

// WriteText writes the tree as indented text, one node per line with its fields inline.
func WriteText(w io.Writer, node *Node) error {
	return writeText(w, node, "", "")
}

func writeText(w io.Writer, node *Node, edge, indent string) error {
	var sb strings.Builder
	sb.WriteString(indent)
	if edge != "" {
		sb.WriteString(edge)
		sb.WriteString(": ")
	}
	sb.WriteString(node.Name)
	if len(node.Fields) > 0 {
		fields := make([]string, len(node.Fields))
		for i, field := range node.Fields {
			fields[i] = fmt.Sprintf("%s=%s", field.Name, field.Value)
		}
		fmt.Fprintf(&sb, " [%s]", strings.Join(fields, ", "))
	}
	sb.WriteString("\n")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	for _, child := range node.Children {
		if err := writeText(w, child.Node, child.Name, indent+"  "); err != nil {
			return err
		}
	}
	return nil
}
