package extraction

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the stable content hash of a file's raw bytes used
// for duplicate detection within an organization.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
