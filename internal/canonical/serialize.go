package canonical

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

// safeTags are the only resolved tags a canonical document may carry.
var safeTags = map[string]bool{
	"!!str":       true,
	"!!int":       true,
	"!!float":     true,
	"!!bool":      true,
	"!!null":      true,
	"!!timestamp": true,
	"!!map":       true,
	"!!seq":       true,
}

// UnsafeNodeError describes a construct outside the plain scalar and
// collection subset.
type UnsafeNodeError struct {
	Line   int
	Reason string
}

func (e *UnsafeNodeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Serialize renders doc as YAML with two-space indentation. Keys follow the
// field order of Document.
func Serialize(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, specerr.Serialization("serialize", errors.New("nil document"))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, specerr.Serialization("serialize", err)
	}
	if err := enc.Close(); err != nil {
		return nil, specerr.Serialization("serialize", err)
	}

	data := buf.Bytes()
	if err := CheckSafe(data); err != nil {
		return nil, specerr.Serialization("serialize", err)
	}
	return data, nil
}

// Parse decodes a canonical document. Input carrying tags, anchors or
// aliases outside the safe subset is rejected before decoding.
func Parse(data []byte) (*Document, error) {
	if err := CheckSafe(data); err != nil {
		return nil, specerr.Structural("parse", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, specerr.Structural("parse", err)
	}
	return &doc, nil
}

// ParseMap decodes a document into a generic mapping, keeping keys that the
// typed form would drop. The same safety check as Parse applies.
func ParseMap(data []byte) (map[string]any, error) {
	if err := CheckSafe(data); err != nil {
		return nil, specerr.Structural("parse", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, specerr.Structural("parse", err)
	}
	if m == nil {
		return nil, specerr.Structural("parse", errors.New("document is empty or not a mapping"))
	}
	return m, nil
}

// CheckSafe walks every document in data and reports the first node that
// uses an anchor, an alias or a tag outside the core schema.
func CheckSafe(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := checkNode(&root); err != nil {
			return err
		}
	}
}

func checkNode(n *yaml.Node) error {
	if n.Anchor != "" {
		return &UnsafeNodeError{Line: n.Line, Reason: fmt.Sprintf("anchor &%s is not allowed", n.Anchor)}
	}
	switch n.Kind {
	case yaml.AliasNode:
		return &UnsafeNodeError{Line: n.Line, Reason: fmt.Sprintf("alias *%s is not allowed", n.Value)}
	case yaml.ScalarNode, yaml.MappingNode, yaml.SequenceNode:
		if tag := n.ShortTag(); !safeTags[tag] {
			return &UnsafeNodeError{Line: n.Line, Reason: fmt.Sprintf("tag %s is not allowed", tag)}
		}
	}
	for _, c := range n.Content {
		if err := checkNode(c); err != nil {
			return err
		}
	}
	return nil
}
