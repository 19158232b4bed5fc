package main

import "encoding/json"

// CatalogEntry is one published artifact build as listed in the repository index.
type CatalogEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// empty string is the default build
	Variant  string `json:"variant"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Filename string `json:"filename"`
	// checksum in the form <algorithm>:<digest>
	Checksum    string            `json:"checksum"`
	Date        string            `json:"date"`
	SizeBytes   int64             `json:"size"`
	BundledLibs map[string]string `json:"bundledLibs,omitempty"`
}

// Catalog is the repository index document.
type Catalog struct {
	FormatVersion int            `json:"formatVersion"`
	Entries       []CatalogEntry `json:"contents"`

	// document as received, re-indented when persisted so unknown fields survive
	raw json.RawMessage
}

// Query selects catalog entries. Empty fields are filled from host defaults before matching,
// except Version where empty means any version.
type Query struct {
	Version string `yaml:"version" json:"version,omitempty"`
	Variant string `yaml:"variant" json:"variant"`
	OS      string `yaml:"os" json:"os,omitempty"`
	Arch    string `yaml:"arch" json:"arch,omitempty"`
}

type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

type ArtifactStorageType int

const (
	STORAGE_TYPE_FS ArtifactStorageType = iota
	STORAGE_TYPE_S3
)

type MirrorDestination struct {
	Type     ArtifactStorageType
	FSConfig fsConfig
	S3Config s3Config
}

// ArtifactStorer is a mirror destination holding artifacts plus an index.json describing them.
type ArtifactStorer interface {
	LoadCatalog() ([]StoredArtifact, error)
	VerifyCatalogAgainstStorage(catalog []StoredArtifact) (validArtifacts []StoredArtifact, invalidArtifacts []StoredArtifact, err error)
	ReconcileWantedEntries(validArtifacts []StoredArtifact, invalidArtifacts []StoredArtifact, wantedEntries []CatalogEntry) []CatalogEntry
	// where the fetcher should put the file before WriteArtifactToStorage is called
	StagingPath(entry CatalogEntry) string
	WriteArtifactToStorage(localPath string, entry CatalogEntry) (*StoredArtifact, error)
	StoreCatalog(artifacts []StoredArtifact) error
}

type StoredArtifact struct {
	CatalogEntry
	ObjectChecksum ObjectChecksum // only relevant for S3
	FullPath       string
}

// we can't checksum objects directly in S3, so the etag seen at upload time stands in for it
type ObjectChecksum struct {
	ETag     string `json:"etag"`
	Checksum string `json:"checksum"`
}
