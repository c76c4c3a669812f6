package badger

import (
	"encoding/binary"

	"github.com/poiesic/animerec/core"
)

// Key prefixes for different record types
const (
	entryPrefix = "idxent:"
	entryIDSeq  = "idxentseq"
	manifestKey = "idxmanifest"
)

// makeEntryKey generates a key for an index entry by ID.
// Format: prefix + big-endian ID, so lexicographic order is insertion order.
func makeEntryKey(id core.ID) []byte {
	prefixBytes := []byte(entryPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
