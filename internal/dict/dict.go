// Package dict writes configuration records as ordered YAML mappings.
//
// Entries keep the order in which they are written. EntryIfDifferent skips
// values equal to their default so that a written record only carries what
// was actually configured.
package dict

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type Writer struct {
	node *yaml.Node
	err  error
}

func NewWriter() *Writer {
	return &Writer{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// Entry appends key: value. A *yaml.Node value is inserted as is.
func (w *Writer) Entry(key string, value any) *Writer {
	if w.err != nil {
		return w
	}
	v, err := toNode(value)
	if err != nil {
		w.err = fmt.Errorf("dict: entry %q: %w", key, err)
		return w
	}
	w.node.Content = append(w.node.Content, keyNode(key), v)
	return w
}

// FlowEntry appends key: value with the value rendered in flow style.
func (w *Writer) FlowEntry(key string, value any) *Writer {
	if w.err != nil {
		return w
	}
	v, err := toNode(value)
	if err != nil {
		w.err = fmt.Errorf("dict: entry %q: %w", key, err)
		return w
	}
	setFlow(v)
	w.node.Content = append(w.node.Content, keyNode(key), v)
	return w
}

// Merge appends every entry of another mapping.
func (w *Writer) Merge(m *yaml.Node) *Writer {
	if w.err != nil {
		return w
	}
	if m == nil || m.Kind != yaml.MappingNode {
		w.err = fmt.Errorf("dict: merge expects a mapping")
		return w
	}
	w.node.Content = append(w.node.Content, m.Content...)
	return w
}

func (w *Writer) Node() (*yaml.Node, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.node, nil
}

// EntryIfDifferent appends key: value unless value equals def.
func EntryIfDifferent[T comparable](w *Writer, key string, def, value T) *Writer {
	if value == def {
		return w
	}
	return w.Entry(key, value)
}

// Lookup returns the value node stored under key in a mapping, or nil.
func Lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func toNode(value any) (*yaml.Node, error) {
	if n, ok := value.(*yaml.Node); ok {
		return n, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(value); err != nil {
		return nil, err
	}
	return n, nil
}

func setFlow(n *yaml.Node) {
	if n.Kind == yaml.SequenceNode || n.Kind == yaml.MappingNode {
		n.Style = yaml.FlowStyle
	}
}
