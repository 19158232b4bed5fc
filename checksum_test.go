package main

import (
	"crypto/sha1"
	"crypto/sha512"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

func TestParseChecksum(t *testing.T) {
	tests := []struct {
		name              string
		checksum          string
		expectedAlgorithm string
		expectedDigest    string
		wantErr           bool
	}{
		{"sha256", "sha256:abcd", "sha256", "abcd", false},
		{"h1 base64 digest", "h1:Zm9vYmFy+/=", "h1", "Zm9vYmFy+/=", false},
		{"no separator", "abcd", "", "", true},
		{"empty algorithm", ":abcd", "", "", true},
		{"empty digest", "sha256:", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			algorithm, digest, err := ParseChecksum(tt.checksum)
			if tt.wantErr {
				if !IsResolveErrorKind(err, ErrInvalidChecksumFormat) {
					t.Fatalf("expected InvalidChecksumFormat error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if algorithm != tt.expectedAlgorithm || digest != tt.expectedDigest {
				t.Errorf("got (%q, %q), want (%q, %q)", algorithm, digest, tt.expectedAlgorithm, tt.expectedDigest)
			}
		})
	}
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("nginx binary contents")
	path := filepath.Join(dir, "nginx")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatal(err)
	}

	blake2bSum := blake2b.Sum256(content)
	tests := []struct {
		name     string
		checksum string
		expected bool
	}{
		{"sha256 match", "sha256:" + sha256Hex(content), true},
		{"sha256 match uppercase", "sha256:" + strings.ToUpper(sha256Hex(content)), true},
		{"sha256 mismatch", "sha256:" + strings.Repeat("0", 64), false},
		{"sha1 match", fmt.Sprintf("sha1:%x", sha1.Sum(content)), true},
		{"sha512 match", fmt.Sprintf("sha512:%x", sha512.Sum512(content)), true},
		{"sha3-256 match", fmt.Sprintf("sha3-256:%x", sha3.Sum256(content)), true},
		{"blake2b-256 match", fmt.Sprintf("blake2b-256:%x", blake2bSum), true},
		{"blake3 match", fmt.Sprintf("blake3:%x", blake3.Sum256(content)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyFile(path, tt.checksum)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.expected {
				t.Errorf("VerifyFile(%s) = %v, want %v", tt.checksum, ok, tt.expected)
			}
		})
	}

	t.Run("missing file is a mismatch", func(t *testing.T) {
		ok, err := VerifyFile(filepath.Join(dir, "nonexistent"), "sha256:"+sha256Hex(content))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected false for missing file")
		}
	})

	t.Run("directory is a mismatch", func(t *testing.T) {
		ok, err := VerifyFile(dir, "sha256:"+sha256Hex(content))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected false for directory")
		}
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := VerifyFile(path, "crc32:deadbeef")
		if !IsResolveErrorKind(err, ErrUnsupportedChecksumAlgorithm) {
			t.Fatalf("expected UnsupportedChecksumAlgorithm error, got %v", err)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := VerifyFile(path, "deadbeef")
		if !IsResolveErrorKind(err, ErrInvalidChecksumFormat) {
			t.Fatalf("expected InvalidChecksumFormat error, got %v", err)
		}
	})
}

func TestVerifyFileH1(t *testing.T) {
	zipBytes, h1 := createTestZip(t, "nginx", "nginx binary contents")
	path := filepath.Join(t.TempDir(), "nginx.zip")
	if err := os.WriteFile(path, zipBytes, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("match", func(t *testing.T) {
		ok, err := VerifyFile(path, h1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Errorf("expected %s to match", h1)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		_, other := createTestZip(t, "nginx", "something else")
		ok, err := VerifyFile(path, other)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected mismatch")
		}
	})

	t.Run("not a zip", func(t *testing.T) {
		notZip := filepath.Join(t.TempDir(), "nginx.zip")
		if err := os.WriteFile(notZip, []byte("truncated"), 0644); err != nil {
			t.Fatal(err)
		}
		ok, err := VerifyFile(notZip, h1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected mismatch for a file that is not a zip")
		}
	})
}
