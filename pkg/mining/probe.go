// Package mining supplies the concrete search predicate: candidates are
// treated as nonces, each deriving a short hash address, and a match is an
// address ending in a requested hex suffix. The search core consumes the
// predicate as an opaque probe and knows nothing about hashing.
package mining

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/hashrace/hashrace/pkg/search"
)

// AddressHexLen is the length of a derived address in hex characters.
const AddressHexLen = 40

// DeriveAddress maps a candidate nonce to its address: the trailing 20
// bytes of the SHA3-256 digest of the nonce's 8-byte big-endian encoding,
// hex encoded. The mapping is a pure function, so probes built on it are
// safe to invoke concurrently from every worker.
func DeriveAddress(candidate uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], candidate)
	sum := sha3.Sum256(buf[:])
	return hex.EncodeToString(sum[len(sum)-AddressHexLen/2:])
}

// SuffixProbe builds a search probe matching candidates whose derived
// address ends in suffix. The suffix must be non-empty lowercase hex no
// longer than a full address.
func SuffixProbe(suffix string) (search.Probe, error) {
	if suffix == "" {
		return nil, fmt.Errorf("suffix must not be empty")
	}
	if len(suffix) > AddressHexLen {
		return nil, fmt.Errorf("suffix longer than a %d-character address: %q", AddressHexLen, suffix)
	}
	for _, r := range suffix {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return nil, fmt.Errorf("suffix must be lowercase hex, got %q", suffix)
		}
	}

	return func(candidate uint64) (string, bool) {
		address := DeriveAddress(candidate)
		if strings.HasSuffix(address, suffix) {
			return address, true
		}
		return "", false
	}, nil
}
