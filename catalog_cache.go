package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

func (d *Downloader) CatalogCachePath() string {
	return filepath.Join(d.CacheDir, CATALOG_INDEX_FILE)
}

func (d *Downloader) CatalogURL() string {
	return fmt.Sprintf("%s/%s", d.RepoURL, CATALOG_INDEX_FILE)
}

// GetCatalog returns the repository index, served from the cache while it is younger than
// CacheMaxAge and refreshed from RepoURL otherwise. If the refresh fails because the repository
// is unreachable and a stale copy exists, the stale copy is used.
func (d *Downloader) GetCatalog(ctx context.Context) (*Catalog, error) {
	cachePath := d.CatalogCachePath()

	isCached := false
	if info, err := os.Stat(cachePath); err == nil {
		if d.CacheMaxAge > 0 && d.now().Sub(info.ModTime()) < d.CacheMaxAge {
			catalog, err := readCatalogFile(cachePath)
			if err == nil || IsResolveErrorKind(err, ErrIndexFormatMismatch) {
				d.sugar.Debugf("using cached index %s", cachePath)
				return catalog, err
			}
			// e.g. a write cut short by a crash, the refresh below overwrites it
			d.sugar.Debugf("cached index %s is unreadable, fetching it again: %v", cachePath, err)
		} else {
			isCached = true
		}
	}

	catalog, err := d.refreshCatalog(ctx)
	if err != nil {
		if isCached && isConnectivityError(err) {
			d.sugar.Warnf("failed to refresh repository index, using stale index: %v", err)
			return readCatalogFile(cachePath)
		}
		return nil, err
	}
	return catalog, nil
}

func (d *Downloader) refreshCatalog(ctx context.Context) (*Catalog, error) {
	url := d.CatalogURL()
	d.sugar.Debugf("fetching %s", url)

	body, err := d.fetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	catalog, err := parseCatalog(body, url)
	if err != nil {
		return nil, err
	}

	if err := d.writeCatalogCache(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (d *Downloader) writeCatalogCache(catalog *Catalog) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, catalog.raw, "", "  "); err != nil {
		return fmt.Errorf("error formatting index JSON: %w", err)
	}
	if err := os.MkdirAll(d.CacheDir, os.FileMode(0755)); err != nil {
		return fmt.Errorf("error creating cache directory: %w", err)
	}
	if err := os.WriteFile(d.CatalogCachePath(), pretty.Bytes(), os.FileMode(0644)); err != nil {
		return fmt.Errorf("error writing cached index: %w", err)
	}
	return nil
}

// ClearCatalogCache removes the cached index so the next operation fetches it again.
func (d *Downloader) ClearCatalogCache() error {
	err := os.Remove(d.CatalogCachePath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func readCatalogFile(path string) (*Catalog, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read index file %s: %w", path, err)
	}
	return parseCatalog(contents, path)
}

// parseCatalog decodes an index document and rejects format versions we don't understand.
// source is only used in error messages.
func parseCatalog(contents []byte, source string) (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(contents, &catalog); err != nil {
		return nil, fmt.Errorf("error unmarshalling index %s: %w", source, err)
	}
	if catalog.FormatVersion != FORMAT_VERSION {
		return nil, newResolveError(ErrIndexFormatMismatch, source,
			"index format version %d does not match expected %d, clear the cache directory or upgrade binspiegel",
			catalog.FormatVersion, FORMAT_VERSION)
	}
	catalog.raw = contents
	return &catalog, nil
}
