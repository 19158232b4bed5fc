package main

import "time"

// one mirror stanza in the config
type MirrorArtifactConfiguration struct {
	Name    string     `yaml:"name"`
	Version string     `yaml:"version"`
	Variant string     `yaml:"variant"`
	OSArchs []Platform `yaml:"os_archs"`
	// only mirror the highest matching version per platform
	LatestOnly bool `yaml:"latest_only"`
}

type fsConfig struct {
	DownloadRoot string `yaml:"download_root"`
}

type s3Config struct {
	Bucket   string `yaml:"bucket"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
}

type mirrorRaw struct {
	StorageType string                        `yaml:"storage_type"`
	FSConfig    fsConfig                      `yaml:"fs_config"`
	S3Config    s3Config                      `yaml:"s3_config"`
	Artifacts   []MirrorArtifactConfiguration `yaml:"artifacts"`
}

type configRaw struct {
	Name        string         `yaml:"name"`
	RepoURL     string         `yaml:"repo_url"`
	CacheDir    string         `yaml:"cache_dir"`
	CacheMaxAge *time.Duration `yaml:"cache_max_age"`
	Timeout     *time.Duration `yaml:"timeout"`
	Mirror      *mirrorRaw     `yaml:"mirror"`
}

type MirrorConfiguration struct {
	Artifacts   []MirrorArtifactConfiguration
	Destination MirrorDestination
}

type Configuration struct {
	Name        string
	RepoURL     string
	CacheDir    string
	CacheMaxAge time.Duration
	Timeout     time.Duration
	// nil when the config has no mirror section
	Mirror *MirrorConfiguration
}
