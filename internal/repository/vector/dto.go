package vector

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"
)

// Hash fields reserved by the index; metadata keys with these names are dropped.
const (
	fieldVector    = "__vector"
	fieldEntityID  = "entity_id"
	fieldVectorID  = "vector_id"
	fieldWrittenAt = "written_at" // unix millis of the last upsert
)

func isReserved(k string) bool {
	return k == fieldVector || k == fieldEntityID || k == fieldVectorID || k == fieldWrittenAt
}

func formatWrittenAt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// parseWrittenAt returns the zero time for vectors stored without a timestamp.
func parseWrittenAt(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
