// Package hash provides the named hash algorithms used for integrity digests.
package hash

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	sha256 "github.com/minio/sha256-simd"
	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ErrUnsupported is returned for algorithm names that are not registered.
var ErrUnsupported = errors.New("unsupported hash algorithm")

// Algorithm names a registered hash function.
type Algorithm string

const (
	// BLAKE3 is the 256-bit BLAKE3 hash.
	BLAKE3 Algorithm = "blake3"
	// SHA256 is SHA-256.
	SHA256 Algorithm = "sha256"
	// SHA512 is SHA-512.
	SHA512 Algorithm = "sha512"
	// BLAKE2b256 is BLAKE2b with a 256-bit digest.
	BLAKE2b256 Algorithm = "blake2b-256"
	// SHA3_256 is SHA3-256.
	SHA3_256 Algorithm = "sha3-256"
	// XXH64 is the non-cryptographic 64-bit xxHash.
	XXH64 Algorithm = "xxh64"
	// CRC32 is the IEEE CRC-32 checksum.
	CRC32 Algorithm = "crc32"
)

// Default is the algorithm used when none is configured.
const Default = BLAKE3

type constructor struct {
	size int
	new  func() hash.Hash
}

var registry = map[Algorithm]constructor{
	BLAKE3: {size: 32, new: func() hash.Hash { return blake3.New() }},
	SHA256: {size: sha256.Size, new: sha256.New},
	SHA512: {size: sha512.Size, new: sha512.New},
	BLAKE2b256: {size: blake2b.Size256, new: func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			// only a key longer than 64 bytes fails
			panic(err)
		}
		return h
	}},
	SHA3_256: {size: 32, new: sha3.New256},
	XXH64:    {size: 8, new: func() hash.Hash { return xxhash.New() }},
	CRC32:    {size: crc32.Size, new: func() hash.Hash { return crc32.NewIEEE() }},
}

// Parse resolves a case-insensitive algorithm name.
func Parse(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[a]; !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnsupported)
	}
	return a, nil
}

// Algorithms returns all registered algorithms sorted by name.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(registry))
	for a := range registry {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Size returns the digest length of a, or 0 when a is not registered.
func (a Algorithm) Size() int { return registry[a].size }

// Available reports whether a is registered.
func (a Algorithm) Available() bool {
	_, ok := registry[a]
	return ok
}

func (a Algorithm) String() string { return string(a) }

// New creates a fresh hasher for a.
func (a Algorithm) New() (*Hasher, error) {
	s, ok := registry[a]
	if !ok {
		return nil, fmt.Errorf("%q: %w", string(a), ErrUnsupported)
	}
	return &Hasher{alg: a, h: s.new()}, nil
}

// MustNew is like Algorithm.New but panics for unregistered algorithms.
func MustNew(a Algorithm) *Hasher {
	h, err := a.New()
	if err != nil {
		panic(err)
	}
	return h
}

// Hasher wraps incremental hashing with the algorithm that produced it.
type Hasher struct {
	alg Algorithm
	h   hash.Hash
}

// Write adds data to the hash state.
func (h *Hasher) Write(p []byte) (int, error) { return h.h.Write(p) }

// Sum appends the current digest to b.
func (h *Hasher) Sum(b []byte) []byte { return h.h.Sum(b) }

// Size returns the digest length in bytes.
func (h *Hasher) Size() int { return h.h.Size() }

// Reset restores the initial state.
func (h *Hasher) Reset() { h.h.Reset() }

// Algorithm returns the algorithm of h.
func (h *Hasher) Algorithm() Algorithm { return h.alg }

// SumHex returns the lowercase hex digest.
func (h *Hasher) SumHex() string { return hex.EncodeToString(h.Sum(nil)) }

// Digest returns the current digest as "<algorithm>:<hex>".
func (h *Hasher) Digest() digest.Digest { return Format(h.alg, h.Sum(nil)) }

// Format renders sum as "<algorithm>:<hex>".
func Format(a Algorithm, sum []byte) digest.Digest {
	return digest.NewDigestFromEncoded(digest.Algorithm(a), hex.EncodeToString(sum))
}

// ParseDigest splits a digest string into its algorithm and raw sum. The
// algorithm must be registered and the sum must have its length.
func ParseDigest(s string) (Algorithm, []byte, error) {
	d := digest.Digest(strings.TrimSpace(s))
	i := strings.Index(string(d), ":")
	if i <= 0 || i == len(d)-1 {
		return "", nil, fmt.Errorf("invalid digest %q: %w", s, digest.ErrDigestInvalidFormat)
	}
	a, err := Parse(string(d.Algorithm()))
	if err != nil {
		return "", nil, err
	}
	sum, err := hex.DecodeString(d.Encoded())
	if err != nil {
		return "", nil, fmt.Errorf("decode digest %q: %w", s, digest.ErrDigestInvalidFormat)
	}
	if len(sum) != a.Size() {
		return "", nil, fmt.Errorf("digest %q has %d bytes, want %d: %w", s, len(sum), a.Size(), digest.ErrDigestInvalidLength)
	}
	return a, sum, nil
}

// SumBytes hashes data in one shot.
func SumBytes(a Algorithm, data []byte) ([]byte, error) {
	h, err := a.New()
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(data)
	return h.Sum(nil), nil
}
