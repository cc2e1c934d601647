package tree

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a document's root is not a mapping.
var ErrNotMapping = errors.New("document root is not a mapping")

const mergeTag = "!!merge"

// Parse decodes a single YAML document into an ordered mapping. An empty
// document yields an empty mapping.
func Parse(data []byte) (Mapping, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Mapping{}, fmt.Errorf("parse yaml: %w", err)
	}

	v, err := fromNode(&doc)
	if err != nil {
		return Mapping{}, err
	}
	switch v.kind {
	case KindNull:
		return NewMapping(), nil
	case KindMapping:
		return v.mapping, nil
	default:
		return Mapping{}, fmt.Errorf("%w: got %s", ErrNotMapping, v.kind)
	}
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case 0:
		return Null(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null(), nil
		}
		return fromNode(n.Alias)
	case yaml.ScalarNode:
		return scalarFromNode(n)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, child := range n.Content {
			item, err := fromNode(child)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{kind: KindList, list: items}, nil
	case yaml.MappingNode:
		m, err := mappingFromNode(n)
		if err != nil {
			return Value{}, err
		}
		return Map(m), nil
	default:
		return Value{}, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func scalarFromNode(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!timestamp":
		// Dates stay as written; decoding would add a time and a zone.
		return Scalar(n.Value), nil
	}
	var out any
	if err := n.Decode(&out); err != nil {
		return Value{}, fmt.Errorf("line %d: decode scalar: %w", n.Line, err)
	}
	return Scalar(out), nil
}

func mappingFromNode(n *yaml.Node) (Mapping, error) {
	merged := NewMapping()
	explicit := NewMapping()

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := resolveAlias(n.Content[i]), n.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return Mapping{}, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
		}

		if keyNode.ShortTag() == mergeTag {
			if err := collectMergeSources(&merged, valueNode); err != nil {
				return Mapping{}, err
			}
			continue
		}

		v, err := fromNode(valueNode)
		if err != nil {
			return Mapping{}, err
		}
		explicit.set(keyNode.Value, v)
	}

	for _, key := range explicit.keys {
		merged.set(key, explicit.values[key])
	}
	return merged, nil
}

// collectMergeSources applies "<<" entries. Keys from earlier sources win over
// later ones; explicit keys of the surrounding mapping are applied afterwards.
func collectMergeSources(dst *Mapping, n *yaml.Node) error {
	n = resolveAlias(n)
	var sources []*yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{n}
	case yaml.SequenceNode:
		for _, child := range n.Content {
			sources = append(sources, resolveAlias(child))
		}
	default:
		return fmt.Errorf("line %d: merge value must be a mapping or a list of mappings", n.Line)
	}

	for _, source := range sources {
		if source.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: merge value must be a mapping", source.Line)
		}
		m, err := mappingFromNode(source)
		if err != nil {
			return err
		}
		for _, key := range m.keys {
			if _, exists := dst.values[key]; !exists {
				dst.set(key, m.values[key])
			}
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// Node renders v as a yaml.Node, keeping mapping key order.
func (v Value) Node() (*yaml.Node, error) {
	switch v.kind {
	case KindScalar:
		n := &yaml.Node{}
		if err := n.Encode(v.scalar); err != nil {
			return nil, fmt.Errorf("encode scalar: %w", err)
		}
		return n, nil
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.list {
			child, err := item.Node()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case KindMapping:
		return v.mapping.Node()
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
}

// Node renders m as a yaml mapping node in key order.
func (m Mapping) Node() (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range m.keys {
		child, err := m.values[key].Node()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			child,
		)
	}
	return n, nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Mapping) MarshalYAML() (any, error) {
	return m.Node()
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	return v.Node()
}
