package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Downloader resolves queries against a binary repository and fetches the matching artifacts.
//
// Changing RepoURL does not invalidate an index already cached in CacheDir; call
// ClearCatalogCache or set CacheMaxAge to 0 when switching repositories.
type Downloader struct {
	// artifact family, e.g. nginx or njs
	Name        string
	RepoURL     string
	CacheDir    string
	CacheMaxAge time.Duration
	Timeout     time.Duration
	// render a progress bar on stderr while downloading
	Progress bool

	client *http.Client
	sugar  *zap.SugaredLogger
	// overridable in tests
	defaultQuery func() Query
	now          func() time.Time
}

type DownloaderOption func(*Downloader)

func WithRepoURL(url string) DownloaderOption {
	return func(d *Downloader) { d.RepoURL = strings.TrimRight(url, "/") }
}

func WithCacheDir(dir string) DownloaderOption {
	return func(d *Downloader) { d.CacheDir = dir }
}

func WithCacheMaxAge(maxAge time.Duration) DownloaderOption {
	return func(d *Downloader) { d.CacheMaxAge = maxAge }
}

func WithTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) { d.Timeout = timeout }
}

func WithProgress(progress bool) DownloaderOption {
	return func(d *Downloader) { d.Progress = progress }
}

func WithLogger(sugar *zap.SugaredLogger) DownloaderOption {
	return func(d *Downloader) { d.sugar = sugar }
}

// WithHTTPClient replaces the client built from Timeout.
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = client }
}

func NewDownloader(name string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		Name:         name,
		RepoURL:      DEFAULT_REPO_URL,
		CacheMaxAge:  DEFAULT_CACHE_MAX_AGE,
		Timeout:      DEFAULT_TIMEOUT,
		sugar:        zap.NewNop().Sugar(),
		defaultQuery: DefaultQuery,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.CacheDir == "" {
		d.CacheDir = DefaultCacheDir(DEFAULT_CACHE_DIR_NAME)
	}
	return d
}

// EffectiveQuery completes query with the host defaults.
func (d *Downloader) EffectiveQuery(query Query) Query {
	return query.WithDefaults(d.defaultQuery())
}

// Search returns the entries matching query, highest version first.
func (d *Downloader) Search(ctx context.Context, query Query) ([]CatalogEntry, error) {
	catalog, err := d.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(catalog, d.Name, d.EffectiveQuery(query), d.sugar)
}

// Download fetches the highest version matching query to destPath, or to CacheDir when destPath
// is empty, and returns the path of the file. An existing file with the right checksum is
// reused without touching the network.
func (d *Downloader) Download(ctx context.Context, query Query, destPath string) (string, error) {
	entries, err := d.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", newResolveError(ErrNoMatchFound, d.EffectiveQuery(query).String(), "no %s binary found", d.Name)
	}
	return d.FetchEntry(ctx, entries[0], destPath)
}

// FetchEntry materializes a single catalog entry.
func (d *Downloader) FetchEntry(ctx context.Context, entry CatalogEntry, destPath string) (string, error) {
	if destPath == "" {
		destPath = filepath.Join(d.CacheDir, entry.Filename)
	}
	return d.FetchArtifact(ctx, d.ArtifactURL(entry), entry.Checksum, destPath)
}

func (d *Downloader) ArtifactURL(entry CatalogEntry) string {
	return fmt.Sprintf("%s/%s", d.RepoURL, entry.Filename)
}

func (d *Downloader) Variants(ctx context.Context, query Query) ([]string, error) {
	entries, err := d.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	variants := make([]string, 0, len(entries))
	for _, e := range entries {
		variants = append(variants, e.Variant)
	}
	return DedupeStrings(variants), nil
}

func (d *Downloader) Versions(ctx context.Context, query Query) ([]string, error) {
	entries, err := d.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, e.Version)
	}
	return DedupeStrings(versions), nil
}
