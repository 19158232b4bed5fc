package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"
)

func NewS3ArtifactStorer(ctx context.Context, client S3ClientInterface, bucket string, prefix string, stagingDir string, sugar *zap.SugaredLogger) S3ArtifactStorageConfiguration {
	return S3ArtifactStorageConfiguration{
		bucket:     bucket,
		context:    ctx,
		prefix:     prefix,
		s3client:   client,
		stagingDir: stagingDir,
		sugar:      sugar,
	}
}

func (s S3ArtifactStorageConfiguration) key(name string) string {
	return path.Join(s.prefix, name)
}

// ValidatePrerequisites checks that the bucket can be listed and written to before anything is
// downloaded.
func (s S3ArtifactStorageConfiguration) ValidatePrerequisites() error {
	_, err := s.s3client.ListPrefix(s.context, s.bucket, s.prefix)
	if err != nil {
		return err
	}
	key := s.key(fmt.Sprintf(".testfile.%d", time.Now().Unix()))
	_, err = s.s3client.PutObject(s.context, s.bucket, key, bytes.NewReader([]byte{'b', 'l', 'a', 'h'}))
	if err != nil {
		return err
	}
	err = s.s3client.DeleteObject(s.context, s.bucket, key)
	if err != nil {
		return err
	}

	return nil
}

func (s S3ArtifactStorageConfiguration) LoadCatalog() ([]StoredArtifact, error) {
	indexFullPath := s.key(CATALOG_INDEX_FILE)
	indexContents, err := s.s3client.GetObjectContents(s.context, s.bucket, indexFullPath)
	if err != nil {
		errWrapped := fmt.Errorf("unable to get index file %s from S3: %w", indexFullPath, err)
		s.sugar.Error(errWrapped)
		return nil, errWrapped
	}
	catalog, err := parseCatalog(indexContents, indexFullPath)
	if err != nil {
		return nil, err
	}

	// objects in S3 can't be hashed in place, so next to the index we keep the etag every
	// object had when we uploaded it together with the checksum it was verified against. If
	// the object's etag is unchanged, we assume the object is okay.
	etagMapFullPath := s.key(S3_ETAG_MAP_FILE)
	etagMapContents, err := s.s3client.GetObjectContents(s.context, s.bucket, etagMapFullPath)
	if err != nil {
		errWrapped := fmt.Errorf("unable to get etag map file %s from S3: %w", etagMapFullPath, err)
		s.sugar.Error(errWrapped)
		return nil, errWrapped
	}
	var etagMap map[string]ObjectChecksum
	err = json.Unmarshal(etagMapContents, &etagMap)
	if err != nil {
		return nil, err
	}

	artifacts := make([]StoredArtifact, 0, len(catalog.Entries))
	for _, entry := range catalog.Entries {
		// it's okay if there's no etag entry for this object, we'll just redownload it
		etag, ok := etagMap[entry.Filename]
		if !ok {
			s.sugar.Debugf("no etag map entry for %s, will redownload", entry.Filename)
		}
		artifacts = append(artifacts, StoredArtifact{
			CatalogEntry:   entry,
			ObjectChecksum: etag,
			FullPath:       s.key(entry.Filename),
		})
	}
	return artifacts, nil
}

func (s S3ArtifactStorageConfiguration) VerifyCatalogAgainstStorage(
	catalog []StoredArtifact,
) (
	validArtifacts []StoredArtifact,
	invalidArtifacts []StoredArtifact,
	err error,
) {
	objects, err := s.s3client.ListPrefix(s.context, s.bucket, s.prefix)
	if err != nil {
		return nil, nil, err
	}

	for _, artifact := range catalog {
		matchingObject, ok := objects[artifact.FullPath]
		if !ok {
			s.sugar.Debugf("%s not found in S3", artifact.FullPath)
			invalidArtifacts = append(invalidArtifacts, artifact)
			continue
		}

		// for an object to be considered valid the etag and checksum must both match
		remoteETag := aws.ToString(matchingObject.ETag)
		s.sugar.Debugf("%s: comparing etags recorded '%s' : remote '%s'", artifact.FullPath, artifact.ObjectChecksum.ETag, remoteETag)
		if artifact.ObjectChecksum.ETag == remoteETag && artifact.ObjectChecksum.Checksum == artifact.Checksum {
			validArtifacts = append(validArtifacts, artifact)
		} else {
			invalidArtifacts = append(invalidArtifacts, artifact)
		}
	}

	return validArtifacts, invalidArtifacts, nil
}

func (s S3ArtifactStorageConfiguration) ReconcileWantedEntries(
	validArtifacts []StoredArtifact,
	invalidArtifacts []StoredArtifact,
	wantedEntries []CatalogEntry,
) []CatalogEntry {
	return commonReconcileWantedEntries(validArtifacts, invalidArtifacts, wantedEntries)
}

func (s S3ArtifactStorageConfiguration) StagingPath(entry CatalogEntry) string {
	return filepath.Join(s.stagingDir, entry.Filename)
}

func (s S3ArtifactStorageConfiguration) WriteArtifactToStorage(localPath string, entry CatalogEntry) (*StoredArtifact, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	key := s.key(entry.Filename)
	etag, err := s.s3client.PutObjectWithContentType(s.context, s.bucket, key, file, "application/octet-stream")
	if err != nil {
		return nil, err
	}
	s.sugar.Debugf("uploaded %s to S3", key)

	return &StoredArtifact{
		CatalogEntry: entry,
		ObjectChecksum: ObjectChecksum{
			ETag:     aws.ToString(etag),
			Checksum: entry.Checksum,
		},
		FullPath: key,
	}, nil
}

func (s S3ArtifactStorageConfiguration) StoreCatalog(artifacts []StoredArtifact) error {
	catalogJson, err := marshalMirrorCatalog(artifacts)
	if err != nil {
		return err
	}
	_, err = s.s3client.PutObjectWithContentType(s.context, s.bucket, s.key(CATALOG_INDEX_FILE), bytes.NewReader(catalogJson), "application/json")
	if err != nil {
		return fmt.Errorf("error writing index JSON: %w", err)
	}

	// now write out our special etag map
	etagMap := make(map[string]ObjectChecksum)
	for _, a := range mergeStoredArtifacts(artifacts) {
		etagMap[a.Filename] = a.ObjectChecksum
	}
	etagMapJson, err := json.MarshalIndent(etagMap, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling etag map JSON: %w", err)
	}
	_, err = s.s3client.PutObjectWithContentType(s.context, s.bucket, s.key(S3_ETAG_MAP_FILE), bytes.NewReader(etagMapJson), "application/json")
	if err != nil {
		return fmt.Errorf("error writing etag map JSON: %w", err)
	}

	return nil
}
