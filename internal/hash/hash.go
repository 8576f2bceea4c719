// Package hash computes content digests for archives and shader
// payloads.
package hash

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Algorithm represents a supported digest algorithm. Using a typed enum
// instead of a string prevents accidental misuse with invalid names.
type Algorithm int

const (
	// BLAKE3 is the default and recommended algorithm.
	BLAKE3 Algorithm = iota
	// UndefinedAlgorithm is used for error handling.
	UndefinedAlgorithm
)

// String provides the string representation of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case BLAKE3:
		return "BLAKE3"
	default:
		return "Undefined"
	}
}

// ParseAlgorithm converts an algorithm name to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "BLAKE3" || s == "blake3" {
		return BLAKE3, nil
	}
	return UndefinedAlgorithm, fmt.Errorf("unsupported hash algorithm: %s", s)
}

func newHasher(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

// Sum returns the digest of data.
func Sum(data []byte, algorithm Algorithm) ([]byte, error) {
	h, err := newHasher(algorithm)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// SumString returns the hex-encoded digest of data.
func SumString(data []byte, algorithm Algorithm) (string, error) {
	d, err := Sum(data, algorithm)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(d), nil
}

// File returns the hex-encoded digest of the file at path.
func File(path string, algorithm Algorithm) (string, error) {
	h, err := newHasher(algorithm)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
