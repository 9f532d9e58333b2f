package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainContent prefixes every content digest.
// The version suffix leaves room for a future algorithm change.
const DomainContent = "tmplledger/content/v1"

// HashSize is the length of a hex-encoded content hash.
const HashSize = 2 * sha256.Size

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash used for dedup.
// It is byte-exact: no trimming, no line-ending or Unicode normalization.
func Hash(content string) string {
	return hashWithDomain(DomainContent, []byte(content))
}
