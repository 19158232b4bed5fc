package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ForName returns a copy of d resolving a different artifact family.
func (d *Downloader) ForName(name string) *Downloader {
	c := *d
	c.Name = name
	return &c
}

// NewArtifactStorer builds the storer for the configured mirror destination.
func NewArtifactStorer(ctx context.Context, dest MirrorDestination, stagingDir string, sugar *zap.SugaredLogger) (ArtifactStorer, error) {
	switch dest.Type {
	case STORAGE_TYPE_FS:
		return NewFSArtifactStorer(dest.FSConfig.DownloadRoot, sugar), nil
	case STORAGE_TYPE_S3:
		client, err := NewS3Client(ctx, dest.S3Config.Endpoint, dest.S3Config.Region)
		if err != nil {
			return nil, err
		}
		storer := NewS3ArtifactStorer(ctx, client, dest.S3Config.Bucket, dest.S3Config.Prefix, stagingDir, sugar)
		if err := storer.ValidatePrerequisites(); err != nil {
			return nil, fmt.Errorf("bucket %s is not usable: %w", dest.S3Config.Bucket, err)
		}
		return storer, nil
	default:
		return nil, fmt.Errorf("unknown storage type %d", dest.Type)
	}
}

// CollectWantedEntries resolves every mirror stanza against the repository index.
// The result holds each file at most once.
func CollectWantedEntries(ctx context.Context, d *Downloader, artifacts []MirrorArtifactConfiguration, sugar *zap.SugaredLogger) ([]CatalogEntry, error) {
	var wanted []CatalogEntry
	seen := make(map[string]struct{})

	for _, a := range artifacts {
		osarchs := a.OSArchs
		if len(osarchs) < 1 {
			hp := d.defaultQuery()
			osarchs = []Platform{{OS: hp.OS, Arch: hp.Arch}}
			sugar.Warnf("artifact %s does not have OS/archs set, using current platform (%s/%s) as defaults", a.Name, hp.OS, hp.Arch)
		}

		ad := d.ForName(a.Name)
		for _, osarch := range osarchs {
			query := Query{Version: a.Version, Variant: a.Variant, OS: osarch.OS, Arch: osarch.Arch}
			entries, err := ad.Search(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("error searching for %s %s: %w", a.Name, query, err)
			}
			if len(entries) == 0 {
				sugar.Errorf("no %s binary found for %s", a.Name, ad.EffectiveQuery(query))
				continue
			}
			if a.LatestOnly {
				entries = entries[:1]
			}
			for _, e := range entries {
				if _, ok := seen[e.Filename]; ok {
					continue
				}
				seen[e.Filename] = struct{}{}
				wanted = append(wanted, e)
			}
		}
	}
	return wanted, nil
}

// MirrorArtifacts brings storer in line with the wanted entries and rewrites its index. Entries
// that fail to download or upload are left out of the index and reported in the returned error
// once everything else has been stored.
func MirrorArtifacts(ctx context.Context, d *Downloader, wanted []CatalogEntry, storer ArtifactStorer, sugar *zap.SugaredLogger) error {
	var valid []StoredArtifact
	var invalid []StoredArtifact

	stored, err := storer.LoadCatalog()
	if err == nil {
		valid, invalid, err = storer.VerifyCatalogAgainstStorage(stored)
	}

	var toDownload []CatalogEntry
	if err != nil {
		sugar.Errorf("error loading mirror catalog: %v", err)
		sugar.Infof("initializing mirror as fresh")
		valid = nil
		toDownload = wanted
	} else {
		toDownload = storer.ReconcileWantedEntries(valid, invalid, wanted)
	}
	sugar.Infof("%d artifacts intact, %d to fetch", len(valid), len(toDownload))

	artifacts := append([]StoredArtifact{}, valid...)
	var failed []string

	for _, entry := range toDownload {
		localPath, err := d.FetchEntry(ctx, entry, storer.StagingPath(entry))
		if err != nil {
			sugar.Errorf("error fetching %s: %v", entry.Filename, err)
			failed = append(failed, entry.Filename)
			continue
		}
		artifact, err := storer.WriteArtifactToStorage(localPath, entry)
		if err != nil {
			sugar.Errorf("error writing %s to storage: %v", entry.Filename, err)
			failed = append(failed, entry.Filename)
			continue
		}
		artifacts = append(artifacts, *artifact)
	}

	if err := storer.StoreCatalog(artifacts); err != nil {
		return fmt.Errorf("error writing mirror catalog: %w", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to mirror %d artifacts: %v", len(failed), failed)
	}
	return nil
}
