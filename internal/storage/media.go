// Package storage talks to the S3-compatible bucket (Cloudflare R2 in
// production) that holds HLS renditions and lesson resources.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
)

// hlsSegmentContentType is what players expect for MPEG-TS segments.
// Uploads tagged with the wrong type break playback in strict players.
const hlsSegmentContentType = "video/mp2t"

// ObjectAPI is the S3 surface Media uses. Satisfied by *s3.Client.
type ObjectAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// PresignAPI issues presigned GET URLs. Satisfied by *s3.PresignClient.
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Media serves playback URLs for bucket-held lesson assets and runs
// bucket maintenance.
type Media struct {
	client    ObjectAPI
	presigner PresignAPI
	bucket    string
	ttl       time.Duration
}

// NewMedia builds a Media client for the configured bucket.
func NewMedia(ctx context.Context, cfg config.MediaConfig) (*Media, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// R2 buckets are not addressable as subdomains.
		o.UsePathStyle = true
	})

	return &Media{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		ttl:       cfg.PresignTTL,
	}, nil
}

// NewMediaWithClients builds a Media over explicit API implementations.
func NewMediaWithClients(client ObjectAPI, presigner PresignAPI, bucket string, ttl time.Duration) *Media {
	return &Media{client: client, presigner: presigner, bucket: bucket, ttl: ttl}
}

// PlaybackURL resolves a stored media reference to a fetchable URL. Keys
// are presigned against the bucket; absolute URLs (legacy rows pointing at
// a public bucket) pass through untouched.
func (m *Media) PlaybackURL(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref, nil
	}

	req, err := m.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(ref),
	}, func(o *s3.PresignOptions) {
		o.Expires = m.ttl
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref, err)
	}
	return req.URL, nil
}

// FixMIMETypes rewrites the content type of every .ts segment under prefix
// to video/mp2t by copying each object onto itself with replaced metadata.
// Returns how many objects were rewritten. Needed after bulk uploads that
// tag segments as text/vnd.trolltech.linguist or octet-stream.
func (m *Media) FixMIMETypes(ctx context.Context, prefix string) (int, error) {
	fixed := 0
	paginator := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fixed, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".ts") {
				continue
			}
			_, err := m.client.CopyObject(ctx, &s3.CopyObjectInput{
				Bucket:            aws.String(m.bucket),
				Key:               aws.String(key),
				CopySource:        aws.String(m.bucket + "/" + url.PathEscape(key)),
				ContentType:       aws.String(hlsSegmentContentType),
				MetadataDirective: types.MetadataDirectiveReplace,
			})
			if err != nil {
				return fixed, fmt.Errorf("rewrite %s: %w", key, err)
			}
			fixed++
		}
	}
	return fixed, nil
}
