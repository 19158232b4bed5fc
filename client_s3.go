package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awss3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/xorcare/pointer"
)

type S3ClientInterface interface {
	GetObjectContents(ctx context.Context, bucket string, key string) ([]byte, error)
	ListPrefix(ctx context.Context, bucket string, prefix string) (map[string]awss3types.Object, error)
	PutObjectWithContentType(ctx context.Context, bucket string, key string, body io.Reader, contentType string) (*string, error)
	PutObject(ctx context.Context, bucket string, key string, body io.Reader) (*string, error)
	DeleteObject(ctx context.Context, bucket string, key string) error
}

type BinspiegelS3Client struct {
	awss3client *awss3.Client
}

// NewS3Client builds a client from the default AWS credential chain. A non-empty endpoint
// switches to path-style addressing against that endpoint, for S3-compatible stores.
func NewS3Client(ctx context.Context, endpoint string, region string) (*BinspiegelS3Client, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	client := awss3.NewFromConfig(awscfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &BinspiegelS3Client{awss3client: client}, nil
}

func (t BinspiegelS3Client) GetObjectContents(ctx context.Context, bucket string, key string) ([]byte, error) {
	output, err := t.awss3client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading object contents: %w", err)
	}
	defer output.Body.Close()
	contents, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("error loading object contents: %w", err)
	}
	return contents, nil
}

func (t BinspiegelS3Client) ListPrefix(ctx context.Context, bucket string, prefix string) (map[string]awss3types.Object, error) {
	objects := make(map[string]awss3types.Object)
	paginator := awss3.NewListObjectsV2Paginator(t.awss3client, &awss3.ListObjectsV2Input{
		Bucket: &bucket,
		Prefix: &prefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing objects from S3: %w", err)
		}
		for _, object := range page.Contents {
			objects[aws.ToString(object.Key)] = object
		}
	}
	return objects, nil
}

func (t BinspiegelS3Client) PutObjectWithContentType(ctx context.Context, bucket string, key string, body io.Reader, contentType string) (*string, error) {
	poi := awss3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   body,
	}
	if contentType != "" {
		poi.ContentType = pointer.String(contentType)
	}

	putObjectOutput, err := t.awss3client.PutObject(ctx, &poi)
	if err != nil {
		return nil, err
	}
	return putObjectOutput.ETag, nil
}

func (t BinspiegelS3Client) PutObject(ctx context.Context, bucket string, key string, body io.Reader) (*string, error) {
	return t.PutObjectWithContentType(ctx, bucket, key, body, "")
}

func (t BinspiegelS3Client) DeleteObject(ctx context.Context, bucket string, key string) error {
	_, err := t.awss3client.DeleteObject(ctx, &awss3.DeleteObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return err
	}
	return nil
}
