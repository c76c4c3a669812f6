package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for index entries.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID in hex, the form used in processed CSV files.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// Item is one row of the anime dataset after preprocessing.
type Item struct {
	Id       string // MAL_ID when the source has one, otherwise the content hash
	Title    string
	Genres   string
	Synopsis string
	Content  string // "Title: ... Overview: ... Genres: ..." text that gets embedded
}

// Entry is a single chunk stored in the vector index.
type Entry struct {
	Id          ID
	ItemId      string
	Title       string
	Content     string
	Vector      []float32
	Metadata    map[string]string // at least "row", "title" and "item_id"
	ContentHash ID
	InsertedAt  time.Time
}

// Metadata keys attached to every entry.
const (
	MetaRow    = "row"
	MetaTitle  = "title"
	MetaItemID = "item_id"
	MetaChunk  = "chunk"
)

// IndexManifest describes a completed index build.
// It is written last, so an index without a manifest is incomplete.
type IndexManifest struct {
	BuildId        string
	EmbeddingModel string
	Dimension      int
	Count          int
	CreatedAt      time.Time
}

// SearchResult is an entry returned by a nearest-neighbour lookup.
// Distance is cosine distance; lower is closer.
type SearchResult struct {
	Entry    *Entry
	Distance float32
}

// Similarity converts the distance back into cosine similarity.
func (r *SearchResult) Similarity() float32 {
	return 1 - r.Distance
}
