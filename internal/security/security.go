// Package security derives a per-document key used to scope pseudonym
// generation, so the same environment key produces an unlinkable pseudonym
// space for every distinct document.
package security

import "crypto/sha256"

// DeriveDocumentKey returns SHA-256(path || 0x7C || content), a 32-byte
// digest that guarantees a different pseudonym space per document even
// under a shared environment key (spec §4.7). content may be nil, in which
// case only the path is hashed.
func DeriveDocumentKey(path string, content []byte) []byte {
	h := sha256.New()
	h.Write([]byte(path))
	if content != nil {
		h.Write([]byte{0x7C})
		h.Write(content)
	}
	return h.Sum(nil)
}
