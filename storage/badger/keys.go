package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	entryPrefix      = "tvec:"
	indexDimsKey     = "tvecmeta:dims"
	checkpointPrefix = "tchk:"
)

// recordSeparator ends the record id inside an entry key. It sorts below
// every printable byte so record "1" orders before record "10".
const recordSeparator = 0x00

// makeRecordPrefix generates the key prefix shared by all chunks of a record.
// Format: prefix:recordID\x00
func makeRecordPrefix(recordID string) []byte {
	buf := make([]byte, 0, len(entryPrefix)+len(recordID)+1)
	buf = append(buf, entryPrefix...)
	buf = append(buf, recordID...)
	return append(buf, recordSeparator)
}

// makeEntryKey generates a key for a chunk.
// Format: prefix:recordID\x00chunkIndex, with the index in BigEndian order
// so lexicographic sort follows chunk order.
func makeEntryKey(recordID string, chunkIndex int) []byte {
	prefix := makeRecordPrefix(recordID)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(chunkIndex))
	return buf
}

// makeCheckpointKey generates a key for job checkpoints.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}
