package utils

import "encoding/binary"

// U64ToBytes returns the big-endian encoding of u.
func U64ToBytes(u uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), u)
}
