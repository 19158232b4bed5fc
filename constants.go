package main

import "time"

const (
	// version of the index document this implementation understands
	FORMAT_VERSION = 2

	CATALOG_INDEX_FILE = "index.json"
	S3_ETAG_MAP_FILE   = ".etag-map.json"

	DEFAULT_ARTIFACT_NAME  = "nginx"
	DEFAULT_REPO_URL       = "https://jirutka.github.io/nginx-binaries"
	DEFAULT_CACHE_DIR_NAME = "binspiegel"
	DEFAULT_CACHE_MAX_AGE  = 8 * time.Hour
	DEFAULT_TIMEOUT        = 10 * time.Second
	DEFAULT_S3_REGION      = "us-east-1"

	USER_AGENT = "binspiegel/1.0"
)
