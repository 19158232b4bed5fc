package main

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
	"golang.org/x/mod/sumdb/dirhash"
)

// checksumAlgorithm computes a digest either incrementally (newHash) or, for formats that
// need the complete file, from a path on disk (hashFile).
type checksumAlgorithm struct {
	newHash  func() (hash.Hash, error)
	hashFile func(path string) (string, error)
}

func (a checksumAlgorithm) streaming() bool {
	return a.newHash != nil
}

func plainHash(f func() hash.Hash) checksumAlgorithm {
	return checksumAlgorithm{newHash: func() (hash.Hash, error) { return f(), nil }}
}

var checksumAlgorithms = map[string]checksumAlgorithm{
	"md5":         plainHash(md5.New),
	"sha1":        plainHash(sha1.New),
	"sha224":      plainHash(sha256.New224),
	"sha256":      plainHash(sha256.New),
	"sha384":      plainHash(sha512.New384),
	"sha512":      plainHash(sha512.New),
	"sha3-256":    plainHash(sha3.New256),
	"sha3-512":    plainHash(sha3.New512),
	"blake2b-256": {newHash: func() (hash.Hash, error) { return blake2b.New256(nil) }},
	"blake2b-512": {newHash: func() (hash.Hash, error) { return blake2b.New512(nil) }},
	"blake3":      plainHash(func() hash.Hash { return blake3.New() }),
	// Go module style hash of a zip archive's contents, the value is base64 rather than hex
	"h1": {hashFile: hashZipH1},
}

func hashZipH1(path string) (string, error) {
	h, err := dirhash.HashZip(path, dirhash.Hash1)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(h, "h1:"), nil
}

// ParseChecksum splits a checksum of the form <algorithm>:<digest>.
func ParseChecksum(checksum string) (algorithm string, expected string, err error) {
	algorithm, expected, _ = strings.Cut(checksum, ":")
	if algorithm == "" || expected == "" {
		return "", "", newResolveError(ErrInvalidChecksumFormat, checksum, "invalid checksum value")
	}
	return algorithm, expected, nil
}

func lookupChecksumAlgorithm(algorithm string) (checksumAlgorithm, error) {
	alg, ok := checksumAlgorithms[algorithm]
	if !ok {
		return checksumAlgorithm{}, newResolveError(ErrUnsupportedChecksumAlgorithm, algorithm, "unsupported checksum algorithm")
	}
	return alg, nil
}

// hex digests are case-insensitive, h1's base64 is not
func digestMatches(alg checksumAlgorithm, actual, expected string) bool {
	if !alg.streaming() {
		return actual == expected
	}
	return strings.EqualFold(actual, expected)
}

// checksumFile computes the digest of the file at path in the representation the catalog uses
// for that algorithm.
func checksumFile(alg checksumAlgorithm, path string) (string, error) {
	if !alg.streaming() {
		return alg.hashFile(path)
	}

	hasher, err := alg.newHash()
	if err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyFile reports whether the file at path matches checksum. A missing path or a path that
// is not a regular file is reported as a mismatch rather than an error.
func VerifyFile(path string, checksum string) (bool, error) {
	algorithm, expected, err := ParseChecksum(checksum)
	if err != nil {
		return false, err
	}
	alg, err := lookupChecksumAlgorithm(algorithm)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("error checking %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}

	actual, err := checksumFile(alg, path)
	if err != nil {
		if !alg.streaming() {
			// a truncated zip can't be hashed at all, which just means it's corrupt
			return false, nil
		}
		return false, fmt.Errorf("error checksumming %s: %w", path, err)
	}
	return digestMatches(alg, actual, expected), nil
}
