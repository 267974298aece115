package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	Bucket    string
}

// SpacesClient uploads processed archives to an S3-compatible bucket so
// they survive local cleanup.
type SpacesClient struct {
	client *s3.Client
	bucket string
}

func NewSpacesClient(cfg SpacesConfig) (*SpacesClient, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: cfg.Endpoint,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	return &SpacesClient{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
	}, nil
}

// UploadArchive stores a local archive under archives/<username>/<name> and
// returns the object key.
func (s *SpacesClient) UploadArchive(ctx context.Context, username, archivePath string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %v", err)
	}
	defer f.Close()

	key := fmt.Sprintf("archives/%s/%s", username, filepath.Base(archivePath))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %v", err)
	}

	return key, nil
}

// FetchArchive downloads a previously uploaded archive into destDir and
// returns the local path.
func (s *SpacesClient) FetchArchive(ctx context.Context, key, destDir string) (string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get archive: %v", err)
	}
	defer result.Body.Close()

	localPath := filepath.Join(destDir, filepath.Base(key))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %v", err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(result.Body); err != nil {
		return "", fmt.Errorf("failed to write local file: %v", err)
	}

	return localPath, nil
}
