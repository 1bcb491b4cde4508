// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pytree provides nested containers of leaves addressed by paths.
//
// A tree is built from four node kinds:
//   - Leaf wraps one value (usually a *tensor.RawTensor)
//   - List is an ordered sequence of nodes
//   - Dict maps string keys to nodes, keeping insertion order
//   - Record is a named struct-like node with ordered fields
//
// A nil Node is an empty tree.
//
// Every leaf has a KeyPath from the root. Its canonical string joins keys and
// fields with "." and appends sequence indices as "[i]":
//
//	params.layers_0.weight
//	blocks[2].bias
//
// The root path renders as "".
//
// Traversal is depth-first in declared order. Map and Map2 always build new
// trees and never touch their inputs.
package pytree
