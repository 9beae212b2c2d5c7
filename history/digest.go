package history

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// DigestSize is the width of a digest in bytes.
const DigestSize = 32

// Digest is an opaque 32-byte content digest. Equality is byte-exact.
type Digest [DigestSize]byte

// ParseDigest decodes a hex digest, with or without a 0x prefix.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*DigestSize {
		return d, fmt.Errorf("digest must be %d hex characters, got %d", 2*DigestSize, len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("decoding digest: %w", err)
	}
	return d, nil
}

// DigestFromBytes copies b into a Digest. b must be exactly DigestSize long.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestSize {
		return d, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// String returns the 0x-prefixed hex encoding.
func (d Digest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

// IsZero reports whether every byte of d is zero.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(bytes.TrimSpace(text)))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
