package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/raportyapp/raporty/report"
)

// Destination uploads artifacts to an S3-compatible bucket, keyed by
// generation date and filename. Replaces the SharePoint upload of the
// legacy deployment.
type Destination struct {
	Endpoint string
	Region   string
	Key      string
	Secret   string
	Bucket   string
	Prefix   string
	client   *s3.Client
}

// New creates an S3 destination
func New(endpoint, region, key, secret, bucket, prefix string) (*Destination, error) {
	dest := &Destination{
		Endpoint: endpoint,
		Region:   region,
		Key:      key,
		Secret:   secret,
		Bucket:   bucket,
		Prefix:   prefix,
	}
	if dest.Region == "" {
		dest.Region = "auto"
	}

	if err := dest.Validate(); err != nil {
		return nil, err
	}

	opts := s3.Options{
		Region:       dest.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(dest.Key, dest.Secret, ""),
		UsePathStyle: true,
	}
	if dest.Endpoint != "" {
		endpoint := dest.Endpoint
		if strings.Contains(endpoint, "/"+dest.Bucket) {
			endpoint = strings.TrimSuffix(endpoint, "/"+dest.Bucket)
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}

	dest.client = s3.New(opts)
	return dest, nil
}

// Deliver uploads the artifact
func (d *Destination) Deliver(ctx context.Context, artifact *report.Artifact) error {
	if d.client == nil {
		return fmt.Errorf("s3 client not initialized")
	}

	key := path.Join(d.Prefix, artifact.GeneratedAt.Format("2006-01"), artifact.Filename)
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(artifact.Content),
		ContentType: aws.String(artifact.ContentType),
		Metadata: map[string]string{
			"checksum":   artifact.Checksum,
			"request-id": artifact.RequestID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", artifact.Filename, err)
	}
	return nil
}

// Name returns the destination identifier
func (d *Destination) Name() string { return "s3" }

// Type returns the channel type
func (d *Destination) Type() string { return "s3" }

// Validate validates the destination configuration
func (d *Destination) Validate() error {
	if d.Key == "" || d.Secret == "" {
		return fmt.Errorf("key and secret are required")
	}
	if d.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	return nil
}
