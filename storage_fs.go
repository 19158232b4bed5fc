package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

func NewFSArtifactStorer(downloadRoot string, sugar *zap.SugaredLogger) FSArtifactStorageConfiguration {
	return FSArtifactStorageConfiguration{
		downloadRoot: downloadRoot,
		sugar:        sugar,
	}
}

// for filesystem mirroring the catalog is the index.json at the root of the mirror
func (s FSArtifactStorageConfiguration) LoadCatalog() ([]StoredArtifact, error) {
	indexFullPath := filepath.Join(s.downloadRoot, CATALOG_INDEX_FILE)
	indexContents, err := os.ReadFile(indexFullPath)
	if err != nil {
		return nil, fmt.Errorf("error loading catalog: %w", err)
	}
	catalog, err := parseCatalog(indexContents, indexFullPath)
	if err != nil {
		return nil, err
	}
	s.sugar.Debugf("loaded mirror index %s with %d entries", indexFullPath, len(catalog.Entries))

	artifacts := make([]StoredArtifact, 0, len(catalog.Entries))
	for _, entry := range catalog.Entries {
		artifacts = append(artifacts, StoredArtifact{
			CatalogEntry: entry,
			FullPath:     filepath.Join(s.downloadRoot, entry.Filename),
		})
	}
	return artifacts, nil
}

func (s FSArtifactStorageConfiguration) VerifyCatalogAgainstStorage(catalog []StoredArtifact) (validArtifacts []StoredArtifact, invalidArtifacts []StoredArtifact, err error) {
	for _, artifact := range catalog {
		ok, err := VerifyFile(artifact.FullPath, artifact.Checksum)
		if err != nil {
			s.sugar.Warnf("cannot verify %s, treating it as invalid: %v", artifact.FullPath, err)
			invalidArtifacts = append(invalidArtifacts, artifact)
			continue
		}
		if !ok {
			s.sugar.Errorf("%s does not match expected checksum %s", artifact.FullPath, artifact.Checksum)
			invalidArtifacts = append(invalidArtifacts, artifact)
			continue
		}
		validArtifacts = append(validArtifacts, artifact)
	}

	s.sugar.Debugf("valid local artifacts: %d, invalid local artifacts: %d", len(validArtifacts), len(invalidArtifacts))
	return validArtifacts, invalidArtifacts, nil
}

func (s FSArtifactStorageConfiguration) ReconcileWantedEntries(
	validArtifacts []StoredArtifact,
	invalidArtifacts []StoredArtifact,
	wantedEntries []CatalogEntry,
) []CatalogEntry {
	return commonReconcileWantedEntries(validArtifacts, invalidArtifacts, wantedEntries)
}

// the fetcher writes straight into the mirror, so a file that is already intact is never re-downloaded
func (s FSArtifactStorageConfiguration) StagingPath(entry CatalogEntry) string {
	return filepath.Join(s.downloadRoot, entry.Filename)
}

func (s FSArtifactStorageConfiguration) WriteArtifactToStorage(localPath string, entry CatalogEntry) (*StoredArtifact, error) {
	fullPath := s.StagingPath(entry)
	if localPath != fullPath {
		return nil, fmt.Errorf("artifact %s was staged at %s instead of %s", entry.Filename, localPath, fullPath)
	}
	return &StoredArtifact{
		CatalogEntry: entry,
		FullPath:     fullPath,
	}, nil
}

func (s FSArtifactStorageConfiguration) StoreCatalog(artifacts []StoredArtifact) error {
	catalogJson, err := marshalMirrorCatalog(artifacts)
	if err != nil {
		return err
	}
	err = os.MkdirAll(s.downloadRoot, os.FileMode(0755))
	if err != nil {
		return err
	}
	indexPath := filepath.Join(s.downloadRoot, CATALOG_INDEX_FILE)
	err = os.WriteFile(indexPath, catalogJson, os.FileMode(0644))
	if err != nil {
		return fmt.Errorf("error writing index JSON: %w", err)
	}
	return nil
}
