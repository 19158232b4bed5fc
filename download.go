package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// FetchArtifact makes sure destPath holds the file at url with the given checksum and returns
// destPath. A file already there with a matching checksum is kept as is. On a checksum mismatch
// after downloading, the file is left in place for inspection and a CorruptDownload error is
// returned; the next call will notice the mismatch and download again.
func (d *Downloader) FetchArtifact(ctx context.Context, url string, checksum string, destPath string) (string, error) {
	ok, err := VerifyFile(destPath, checksum)
	if err != nil {
		return "", err
	}
	if ok {
		d.sugar.Debugf("file %s already exists", destPath)
		return destPath, nil
	}

	algorithm, expected, _ := ParseChecksum(checksum)
	alg, err := lookupChecksumAlgorithm(algorithm)
	if err != nil {
		return "", err
	}

	d.sugar.Infof("downloading %s", url)

	if err := os.MkdirAll(filepath.Dir(destPath), os.FileMode(0755)); err != nil {
		return "", fmt.Errorf("error creating directory for %s: %w", destPath, err)
	}

	resp, err := d.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	file, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(0755))
	if err != nil {
		return "", fmt.Errorf("error opening %s for writing: %w", destPath, err)
	}
	defer file.Close()
	// O_CREATE's mode only applies to new files
	if err := file.Chmod(os.FileMode(0755)); err != nil {
		return "", fmt.Errorf("error marking %s executable: %w", destPath, err)
	}

	writers := []io.Writer{file}
	var hasher hash.Hash
	if alg.streaming() {
		hasher, err = alg.newHash()
		if err != nil {
			return "", err
		}
		writers = append(writers, hasher)
	}
	if d.Progress {
		bar := newDownloadProgressBar(resp.ContentLength, filepath.Base(destPath))
		defer bar.Finish()
		writers = append(writers, bar)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), resp.Body); err != nil {
		return "", fmt.Errorf("error downloading %s: %w", url, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error writing %s: %w", destPath, err)
	}

	var actual string
	if hasher != nil {
		actual = hex.EncodeToString(hasher.Sum(nil))
	} else {
		actual, err = alg.hashFile(destPath)
		if err != nil {
			return "", newResolveError(ErrCorruptDownload, filepath.Base(destPath), "file is corrupted, cannot compute %s checksum: %v", algorithm, err)
		}
	}
	if !digestMatches(alg, actual, expected) {
		return "", newResolveError(ErrCorruptDownload, filepath.Base(destPath), "file is corrupted, %s checksum doesn't match", algorithm)
	}
	d.sugar.Debugf("file was saved in %s", destPath)

	return destPath, nil
}

func newDownloadProgressBar(size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("downloading %s", name)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}
