// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package trainstate

import (
	"github.com/born-ml/trainstate/internal/serialization"
)

// Header is the JSON header of a checkpoint file.
type Header = serialization.Header

// TensorMeta describes one stored tensor.
type TensorMeta = serialization.TensorMeta

// Meta carries caller-supplied checkpoint fields.
type Meta = serialization.Meta

// Checkpoint errors.
var (
	ErrInvalidMagic       = serialization.ErrInvalidMagic
	ErrUnsupportedVersion = serialization.ErrUnsupportedVersion
	ErrChecksumMismatch   = serialization.ErrChecksumMismatch
	ErrOutOfBounds        = serialization.ErrOutOfBounds
	ErrHeaderTooLarge     = serialization.ErrHeaderTooLarge
	ErrTensorMismatch     = serialization.ErrTensorMismatch
)

// SaveState writes the traversable part of s to path in .born format.
//
// Example:
//
//	err := trainstate.SaveState("ckpt.born", state, trainstate.Meta{
//	    Metadata: map[string]string{"dataset": "mnist"},
//	})
func SaveState(path string, s State, meta Meta) error {
	return serialization.SaveState(path, s, meta)
}

// LoadState reads the checkpoint at path into the layout of template and
// returns a State carrying template's static fields.
func LoadState(path string, template State) (State, error) {
	return serialization.LoadState(path, template)
}

// ReadHeader returns the header of the checkpoint at path.
func ReadHeader(path string) (Header, error) {
	return serialization.ReadHeader(path)
}
