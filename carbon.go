// Package carbon provides a read-optimized, self-describing binary
// archive format for JSON-shaped documents.
//
// A carbon archive strips every string literal of a document into a
// dictionary of 64-bit ids, transposes the document tree into a
// columnar, type-partitioned record table with stable byte offsets, and
// serializes both into a single file. Readers traverse the record table
// without deserializing it and resolve string ids on demand through a
// query layer with optional LRU caching.
//
// # Basic Usage
//
// Converting a JSON document and storing it:
//
//	block, err := carbon.FromJSON([]byte(`{"title": "back to the future"}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := carbon.StoreFile("movie.carbon", block); err != nil {
//	    log.Fatal(err)
//	}
//
// Opening an archive and resolving strings:
//
//	a, err := carbon.Open("movie.carbon")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	q, _ := a.Query()
//	defer q.Close()
//	ids, _ := q.FindIDs(archive.PredContains("future"), nil, -1)
//
// Traversing the record table:
//
//	it, _ := a.PropIter(archive.MaskAny)
//	for {
//	    group, err := it.Next()
//	    if err != nil || group == nil {
//	        break
//	    }
//	    // inspect group.Values / group.Collection
//	}
//
// # Package Structure
//
// This package wraps the most common entry points of the archive
// package. For fine-grained control (visitors, column iterators, the
// string-id cache) use the archive package directly; the memory,
// compress, columndoc and strdic packages expose the building blocks.
package carbon

import (
	"github.com/jaksonlabs/carbon/archive"
	"github.com/jaksonlabs/carbon/columndoc"
	"github.com/jaksonlabs/carbon/memory"
)

// FromJSON parses a JSON document and serializes it into an in-memory
// archive image.
//
// Available options:
//   - archive.WithCompressor(format.CompressionNone|Huffman|Zstd|LZ4|S2)
//   - archive.WithOwner(partition)
//   - archive.WithLogger(logger)
func FromJSON(data []byte, opts ...archive.Option) (*memory.Block, error) {
	return archive.FromJSON(data, opts...)
}

// FromModel serializes a pre-built columnar document model into an
// in-memory archive image.
func FromModel(doc *columndoc.Doc, opts ...archive.Option) (*memory.Block, error) {
	return archive.FromModel(doc, opts...)
}

// StoreFile writes a serialized archive image to disk.
func StoreFile(path string, block *memory.Block) error {
	return archive.WriteFile(path, block)
}

// Open opens and validates an archive file.
//
// Available options:
//   - archive.WithMmap() — memory-map the file for string lookups
//   - archive.WithLogger(logger)
func Open(path string, opts ...archive.Option) (*archive.Archive, error) {
	return archive.Open(path, opts...)
}

// ParseJSON builds the columnar pre-serialization model of a JSON
// document without serializing it.
func ParseJSON(data []byte) (*columndoc.Doc, error) {
	return columndoc.FromJSON(data)
}
