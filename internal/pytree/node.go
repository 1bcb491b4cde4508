// Package pytree implements nested trees of values: ordered keyed mappings,
// sequences and named records terminating in leaves.
//
// Training state (parameters, optimizer moments, EMA snapshots) is held as a
// Node. Traversal is depth-first in declared order: insertion order for Dict
// and Record fields, positional order for List. A nil Node is an empty tree.
//
// Trees are treated as immutable once built. Map and Map2 always return new
// trees and never touch their inputs.
package pytree

import "fmt"

// Node is a tree node: Leaf, List, *Dict or *Record.
type Node interface {
	node()
}

// Leaf is a terminal value.
type Leaf struct {
	Value any
}

// List is an ordered sequence of subtrees.
type List []Node

// Dict is a keyed mapping that iterates in insertion order.
type Dict struct {
	keys  []string
	items map[string]Node
}

// Record is a named aggregate with ordered fields.
// Its path entries render the same as Dict keys but are kept distinct so
// that two trees only share structure when both use records.
type Record struct {
	name   string
	fields []string
	values map[string]Node
}

func (Leaf) node()    {}
func (List) node()    {}
func (*Dict) node()   {}
func (*Record) node() {}

// NewDict creates an empty Dict.
//
// Example:
//
//	params := pytree.NewDict().
//	    Set("weight", pytree.Leaf{Value: w}).
//	    Set("bias", pytree.Leaf{Value: b})
func NewDict() *Dict {
	return &Dict{items: make(map[string]Node)}
}

// Set stores n under key and returns d for chaining.
// Re-setting an existing key keeps its original position.
// Set is meant for construction; do not call it on a Dict already shared.
func (d *Dict) Set(key string, n Node) *Dict {
	if _, ok := d.items[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.items[key] = n
	return d
}

// Get returns the subtree stored under key.
func (d *Dict) Get(key string) (Node, bool) {
	n, ok := d.items[key]
	return n, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	return len(d.keys)
}

// NewRecord creates an empty Record with the given type name.
func NewRecord(name string) *Record {
	return &Record{name: name, values: make(map[string]Node)}
}

// Name returns the record's type name.
func (r *Record) Name() string {
	return r.name
}

// Set stores n under field and returns r for chaining.
func (r *Record) Set(field string, n Node) *Record {
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = n
	return r
}

// Field returns the subtree stored under field.
func (r *Record) Field(field string) (Node, bool) {
	n, ok := r.values[field]
	return n, ok
}

// Fields returns the field names in declaration order.
func (r *Record) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// kindName is used in structure mismatch errors.
func kindName(n Node) string {
	switch v := n.(type) {
	case nil:
		return "empty"
	case Leaf:
		return "leaf"
	case List:
		return fmt.Sprintf("list[%d]", len(v))
	case *Dict:
		return fmt.Sprintf("dict[%d]", v.Len())
	case *Record:
		return fmt.Sprintf("record %s[%d]", v.name, v.Len())
	default:
		return fmt.Sprintf("%T", n)
	}
}
