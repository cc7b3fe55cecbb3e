package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"tradejournal/internal/config"
)

var ErrNotConfigured = errors.New("image storage not configured")

// ImageStore signs upload/download URLs for trade screenshots and removes them with their trade.
type ImageStore struct {
	svc        *s3.S3
	bucket     string
	presignTTL time.Duration
}

// New builds a store from config. Credentials come from the default AWS chain
// unless creds is non-nil. An empty bucket yields a store that reports ErrNotConfigured.
func New(cfg config.StorageConfig, creds *credentials.Credentials) (*ImageStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return &ImageStore{}, nil
	}
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	if creds != nil {
		awsCfg = awsCfg.WithCredentials(creds)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ImageStore{svc: s3.New(sess), bucket: cfg.Bucket, presignTTL: ttl}, nil
}

func (s *ImageStore) Enabled() bool {
	return s != nil && s.svc != nil
}

// ImageKey is images/<user>/<trade>/<uuid><ext>.
func ImageKey(userID, tradeID, contentType string) string {
	return tradePrefix(userID, tradeID) + uuid.NewString() + ExtensionFor(contentType)
}

func ExtensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func tradePrefix(userID, tradeID string) string {
	return "images/" + userID + "/" + tradeID + "/"
}

// UserOwnsKey reports whether key lives under any of the user's trade prefixes.
func UserOwnsKey(userID, key string) bool {
	return userID != "" && strings.HasPrefix(key, "images/"+userID+"/") && !strings.Contains(key, "..")
}

// OwnsKey reports whether key lives under the user's trade prefix.
func OwnsKey(userID, tradeID, key string) bool {
	return strings.HasPrefix(key, tradePrefix(userID, tradeID)) && !strings.Contains(key, "..")
}

// PresignPut returns a URL the client can PUT the image to.
func (s *ImageStore) PresignPut(key, contentType string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrNotConfigured
	}
	req, _ := s.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	url, err := req.Presign(s.presignTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return url, time.Now().Add(s.presignTTL).UTC(), nil
}

// PresignGet returns a short-lived download URL.
func (s *ImageStore) PresignGet(key string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return req.Presign(s.presignTTL)
}

// RemoveTradeImages deletes every object under the trade's prefix.
func (s *ImageStore) RemoveTradeImages(ctx context.Context, userID, tradeID string) error {
	if !s.Enabled() {
		return nil
	}
	var keys []*s3.ObjectIdentifier
	err := s.svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(tradePrefix(userID, tradeID)),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, &s3.ObjectIdentifier{Key: obj.Key})
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	// DeleteObjects accepts at most 1000 keys per call.
	for start := 0; start < len(keys); start += 1000 {
		end := start + 1000
		if end > len(keys) {
			end = len(keys)
		}
		_, err := s.svc.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: keys[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
	}
	return nil
}
