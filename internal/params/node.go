package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupported = errors.New("params: unsupported value")
	ErrNotGroup    = errors.New("params: value is not a group")
)

type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindVector
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindGroup:
		return "group"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Node is one field of a configuration tree. The set of implementations is
// closed: Null, Scalar, Vector and Group.
type Node interface {
	Kind() Kind
	node()
}

type Null struct{}

// Scalar holds a bool, float64 or string.
type Scalar struct{ V any }

type Vector []float64

type Group map[string]Node

func (Null) Kind() Kind   { return KindNull }
func (Scalar) Kind() Kind { return KindScalar }
func (Vector) Kind() Kind { return KindVector }
func (Group) Kind() Kind  { return KindGroup }

func (Null) node()   {}
func (Scalar) node() {}
func (Vector) node() {}
func (Group) node()  {}

func Bool(b bool) Scalar      { return Scalar{V: b} }
func Number(f float64) Scalar { return Scalar{V: f} }
func String(s string) Scalar  { return Scalar{V: s} }

// Float returns the numeric value, or 0 for non-numeric scalars.
func (s Scalar) Float() float64 {
	f, _ := s.V.(float64)
	return f
}

func (Null) MarshalJSON() ([]byte, error)     { return []byte("null"), nil }
func (s Scalar) MarshalJSON() ([]byte, error) { return json.Marshal(s.V) }

func (v Vector) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]float64(v))
}

func (g *Group) UnmarshalJSON(data []byte) error {
	out, err := Decode(data)
	if err != nil {
		return err
	}
	*g = out
	return nil
}

// Decode parses a JSON object into a Group.
func Decode(data []byte) (Group, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	n, err := FromValue(raw)
	if err != nil {
		return nil, err
	}
	g, ok := n.(Group)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotGroup, n.Kind())
	}
	return g, nil
}

// FromValue converts a decoded JSON value (or plain Go value of the same
// shapes) into a Node.
func FromValue(v any) (Node, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		return Clone(t), nil
	case bool, string, float64:
		return Scalar{V: t}, nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return Number(f), nil
	case []float64:
		return append(Vector{}, t...), nil
	case []any:
		vec := make(Vector, len(t))
		for i, e := range t {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: non-numeric element %d of type %T", ErrUnsupported, i, e)
			}
			vec[i] = f
		}
		return vec, nil
	case map[string]any:
		g := make(Group, len(t))
		for k, e := range t {
			n, err := FromValue(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			g[k] = n
		}
		return g, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
}

// FromStruct builds a tree from any value that marshals to a JSON object.
func FromStruct(v any) (Group, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode writes the tree into a typed value through its JSON tags.
func (g Group) Decode(into any) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, into)
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch n.Kind() {
	case KindGroup:
		src := n.(Group)
		dst := make(Group, len(src))
		for k, v := range src {
			if v == nil {
				dst[k] = Null{}
				continue
			}
			dst[k] = Clone(v)
		}
		return dst
	case KindVector:
		return append(Vector{}, n.(Vector)...)
	default:
		return n
	}
}

// CloneGroup is Clone for the common case of a whole tree.
func CloneGroup(g Group) Group {
	if g == nil {
		return Group{}
	}
	return Clone(g).(Group)
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "."), ".")
}

// Lookup returns the node at a dotted path.
func (g Group) Lookup(path string) (Node, bool) {
	var cur Node = g
	for _, part := range split(path) {
		grp, ok := cur.(Group)
		if !ok {
			return nil, false
		}
		if cur, ok = grp[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set replaces the node at a dotted path. Intermediate groups must already
// exist; Set reports whether the value was written.
func (g Group) Set(path string, n Node) bool {
	parts := split(path)
	grp := g
	for _, part := range parts[:len(parts)-1] {
		next, ok := grp[part].(Group)
		if !ok {
			return false
		}
		grp = next
	}
	grp[parts[len(parts)-1]] = n
	return true
}
