package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFetchArtifact(t *testing.T) {
	ctx := context.Background()
	entry := testEntry("nginx", "1.19.5", "", "linux", "x86_64")
	body := testBinary(entry.Filename)

	t.Run("downloads and verifies", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.publish(t, entry)
		d := newTestDownloader(t, repo.URL())
		dest := filepath.Join(t.TempDir(), "bin", "nginx")

		path, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, dest)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != dest {
			t.Errorf("expected path %s, got %s", dest, path)
		}
		written, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("failed to read downloaded file: %v", err)
		}
		if !bytes.Equal(written, body) {
			t.Errorf("downloaded content mismatch")
		}
		if runtime.GOOS != "windows" {
			info, err := os.Stat(dest)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm()&0100 == 0 {
				t.Errorf("expected file to be executable, mode is %v", info.Mode())
			}
		}
	})

	t.Run("existing intact file is not downloaded again", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.publish(t, entry)
		d := newTestDownloader(t, repo.URL())
		dest := filepath.Join(t.TempDir(), "nginx")

		for i := 0; i < 2; i++ {
			if _, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, dest); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if n := repo.requestCount(entry.Filename); n != 1 {
			t.Errorf("expected 1 download request, got %d", n)
		}
	})

	t.Run("corrupted local file is replaced", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.publish(t, entry)
		d := newTestDownloader(t, repo.URL())
		dest := filepath.Join(t.TempDir(), "nginx")
		if err := os.WriteFile(dest, []byte("garbage"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, dest); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := repo.requestCount(entry.Filename); n != 1 {
			t.Errorf("expected 1 download request, got %d", n)
		}
		ok, err := VerifyFile(dest, entry.Checksum)
		if err != nil || !ok {
			t.Errorf("expected replaced file to verify, got %v, %v", ok, err)
		}
	})

	t.Run("checksum mismatch leaves the file in place", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.publish(t, entry)
		repo.set(entry.Filename, []byte("tampered"))
		d := newTestDownloader(t, repo.URL())
		dest := filepath.Join(t.TempDir(), "nginx")

		_, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, dest)
		if !IsResolveErrorKind(err, ErrCorruptDownload) {
			t.Fatalf("expected CorruptDownload error, got %v", err)
		}
		written, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("expected corrupt file to be kept: %v", err)
		}
		if string(written) != "tampered" {
			t.Errorf("unexpected file content %q", written)
		}

		// a fixed upstream is picked up by the next call
		repo.set(entry.Filename, body)
		if _, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, dest); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non-200 response", func(t *testing.T) {
		repo := newTestRepo(t)
		d := newTestDownloader(t, repo.URL())
		dest := filepath.Join(t.TempDir(), "nginx")

		_, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, dest)
		if !IsResolveErrorKind(err, ErrUnexpectedResponse) {
			t.Fatalf("expected UnexpectedResponse error, got %v", err)
		}
		if _, err := os.Stat(dest); err == nil {
			t.Error("expected no file to be written")
		}
	})

	t.Run("server error", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.setStatus(http.StatusBadGateway)
		d := newTestDownloader(t, repo.URL())

		_, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, filepath.Join(t.TempDir(), "nginx"))
		if !IsResolveErrorKind(err, ErrUnexpectedResponse) {
			t.Fatalf("expected UnexpectedResponse error, got %v", err)
		}
	})

	t.Run("unsupported algorithm fails before downloading", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.publish(t, entry)
		d := newTestDownloader(t, repo.URL())

		_, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), "crc32:deadbeef", filepath.Join(t.TempDir(), "nginx"))
		if !IsResolveErrorKind(err, ErrUnsupportedChecksumAlgorithm) {
			t.Fatalf("expected UnsupportedChecksumAlgorithm error, got %v", err)
		}
		if n := repo.requestCount(entry.Filename); n != 0 {
			t.Errorf("expected no download request, got %d", n)
		}
	})

	t.Run("h1 checksum", func(t *testing.T) {
		zipBytes, h1 := createTestZip(t, "nginx", "nginx binary contents")
		repo := newTestRepo(t)
		repo.set("nginx.zip", zipBytes)
		d := newTestDownloader(t, repo.URL())
		dest := filepath.Join(t.TempDir(), "nginx.zip")

		if _, err := d.FetchArtifact(ctx, repo.URL()+"/nginx.zip", h1, dest); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := d.FetchArtifact(ctx, repo.URL()+"/nginx.zip", h1, dest); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := repo.requestCount("nginx.zip"); n != 1 {
			t.Errorf("expected 1 download request, got %d", n)
		}
	})

	t.Run("progress bar", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.publish(t, entry)
		d := newTestDownloader(t, repo.URL(), WithProgress(true))

		if _, err := d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, filepath.Join(t.TempDir(), "nginx")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
