// Package serialization implements the .born checkpoint format for trees of
// tensors.
//
//	Format Structure (v2):
//	  [0x00: 4 bytes  Magic "BORN"]
//	  [0x04: 4 bytes  Version (uint32 LE) = 2]
//	  [0x08: 4 bytes  Flags (uint32 LE)]
//	  [0x0C: 4 bytes  Reserved]
//	  [0x10: 8 bytes  Header Size (uint64 LE)]
//	  [0x18: 8 bytes  Data Size (uint64 LE)]
//	  [0x20: 32 bytes SHA-256 of the tensor data]
//	  [0x40: Header: JSON metadata]
//	  [Tensor data: raw little-endian bytes, section 64-byte aligned]
//
// Tensors are stored in tree traversal order and addressed by their
// canonical tree path (e.g. "params.layers_0.weight"). Restoring needs a
// template tree with the same structure; the template supplies the layout,
// the file supplies the numbers.
//
// Example usage:
//
//	header := serialization.Header{Step: 100, Structure: "Linear(3->1)"}
//	if err := serialization.Save("ckpt.born", header, tree); err != nil {
//	    log.Fatal(err)
//	}
//
//	r, err := serialization.Open("ckpt.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	restored, err := r.RestoreTree(template)
package serialization
