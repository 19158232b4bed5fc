package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/xorcare/pointer"
	"gopkg.in/yaml.v3"
)

func DefaultConfiguration() Configuration {
	return Configuration{
		Name:        DEFAULT_ARTIFACT_NAME,
		RepoURL:     DEFAULT_REPO_URL,
		CacheMaxAge: DEFAULT_CACHE_MAX_AGE,
		Timeout:     DEFAULT_TIMEOUT,
	}
}

func LoadConfig(configPath string) (config Configuration, err error) {
	var raw configRaw
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configData, &raw)
	if err != nil {
		return config, err
	}
	return raw.toConfiguration()
}

func (raw configRaw) toConfiguration() (Configuration, error) {
	config := DefaultConfiguration()
	if raw.Name != "" {
		config.Name = raw.Name
	}
	if raw.RepoURL != "" {
		config.RepoURL = strings.TrimRight(raw.RepoURL, "/")
	}
	config.CacheDir = raw.CacheDir

	if raw.CacheMaxAge == nil {
		raw.CacheMaxAge = pointer.Duration(DEFAULT_CACHE_MAX_AGE)
	}
	if *raw.CacheMaxAge < 0 {
		return config, fmt.Errorf("cache_max_age must not be negative, got %s", *raw.CacheMaxAge)
	}
	config.CacheMaxAge = *raw.CacheMaxAge

	if raw.Timeout == nil {
		raw.Timeout = pointer.Duration(DEFAULT_TIMEOUT)
	}
	if *raw.Timeout <= 0 {
		return config, fmt.Errorf("timeout must be positive, got %s", *raw.Timeout)
	}
	config.Timeout = *raw.Timeout

	if raw.Mirror == nil {
		return config, nil
	}

	var storageType ArtifactStorageType
	switch x := strings.ToLower(raw.Mirror.StorageType); x {
	case "s3":
		storageType = STORAGE_TYPE_S3
		if raw.Mirror.S3Config.Bucket == "" {
			return config, fmt.Errorf("s3_config.bucket is required for storage type s3")
		}
		if raw.Mirror.S3Config.Region == "" {
			raw.Mirror.S3Config.Region = DEFAULT_S3_REGION
		}
	case "fs":
		storageType = STORAGE_TYPE_FS
		if raw.Mirror.FSConfig.DownloadRoot == "" {
			return config, fmt.Errorf("fs_config.download_root is required for storage type fs")
		}
	default:
		return config, fmt.Errorf("%s is not a known storage type", x)
	}

	for i, a := range raw.Mirror.Artifacts {
		if a.Name == "" {
			return config, fmt.Errorf("mirror artifact %d has no name", i)
		}
	}

	config.Mirror = &MirrorConfiguration{
		Artifacts: raw.Mirror.Artifacts,
		Destination: MirrorDestination{
			Type:     storageType,
			FSConfig: raw.Mirror.FSConfig,
			S3Config: raw.Mirror.S3Config,
		},
	}
	return config, nil
}
