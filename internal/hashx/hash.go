// Package hashx computes the content digests used for attachment integrity
// checks and dataset fingerprints.
//
// Two digests are provided: a cryptographic SHA-256 (integrity, fingerprints)
// and a fast non-cryptographic xxhash64 (deduplication hints). The fast
// digest must never be used for integrity decisions.
package hashx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumReader returns the hex-encoded SHA-256 digest of everything read from r.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FastSum returns the hex-encoded xxhash64 digest of data.
func FastSum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Hasher abstracts digest computation so components never bind to a concrete
// algorithm. The default implementation uses SHA-256 for Sum and xxhash64 for
// FastSum.
type Hasher interface {
	Sum(data []byte) string
	FastSum(data []byte) string
}

// SHA256Hasher is the default Hasher.
type SHA256Hasher struct{}

func (SHA256Hasher) Sum(data []byte) string     { return Sum(data) }
func (SHA256Hasher) FastSum(data []byte) string { return FastSum(data) }
