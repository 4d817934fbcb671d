package protocol

import "hash/crc32"

// PayloadChecksum computes the CRC-32 (IEEE) of a transferred payload.
//
// The wire protocol has no integrity check of its own. The digest is only
// reported to the user so that a dump and a later write of the same window
// can be compared without diffing the files.
func PayloadChecksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
