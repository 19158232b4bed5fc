package main

import (
	"context"

	"go.uber.org/zap"
)

type FSArtifactStorageConfiguration struct {
	downloadRoot string
	sugar        *zap.SugaredLogger
}

// artifacts are fetched into stagingDir before they are uploaded
type S3ArtifactStorageConfiguration struct {
	bucket     string
	context    context.Context
	prefix     string
	s3client   S3ClientInterface
	stagingDir string
	sugar      *zap.SugaredLogger
}
