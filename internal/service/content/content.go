// Package content implements the content-addressing primitives the rest
// of the server relies on to make asset URLs stable: a SHA-256 digest in
// URL-safe base64 (no padding) for manifest asset hashes, an MD5 hex
// digest for the wire-format "key" field the Expo Updates client parser
// expects, and a deterministic hash-to-UUID formatter used to derive
// stable update identifiers.
package content

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// SHA256Base64URL returns the SHA-256 digest of b, base64-encoded with
// the URL-safe alphabet and no padding.
func SHA256Base64URL(b []byte) string {
	sum := sha256.Sum256(b)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// MD5Hex returns the lowercase hex MD5 digest of b. The wire protocol
// fixes MD5 as the asset "key" algorithm; it is not used for anything
// security sensitive.
func MD5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// HashToUUID takes the first 32 hex-or-alnum characters of s (right-
// padding with '0' if shorter) and formats them as a UUID (8-4-4-4-12).
// It performs no validation that s is actually hex; the wire protocol
// only requires a stable, UUID-shaped identifier.
func HashToUUID(s string) string {
	const want = 32
	if len(s) < want {
		s = s + strings.Repeat("0", want-len(s))
	} else {
		s = s[:want]
	}

	var sb strings.Builder
	sb.Grow(want + 4)
	for i, r := range s {
		switch i {
		case 8, 12, 16, 20:
			sb.WriteByte('-')
		}
		sb.WriteRune(r)
	}

	return sb.String()
}
