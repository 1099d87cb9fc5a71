package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/netx"
	sc "github.com/dmitrijs2005/agrocms/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Accepted cover image types.
var imageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// MediaService stores article cover images in an S3-compatible bucket and
// returns their public URLs.
type MediaService struct {
	config     *sc.Config
	httpClient *http.Client
	log        logging.Logger
	now        func() time.Time
}

func NewMediaService(config *sc.Config, httpClient *http.Client, log logging.Logger) *MediaService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &MediaService{config: config, httpClient: httpClient, log: log.With("module", "media"), now: time.Now}
}

// StorageKey places objects under articles/YYYY/MM/DD/<uuid>.
func StorageKey(t time.Time) string {
	return fmt.Sprintf("articles/%04d/%02d/%02d/%v", t.Year(), int(t.Month()), t.Day(), uuid.New())
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// Upload stores body and returns the URL to use as an article imageUrl.
func (s *MediaService) Upload(ctx context.Context, contentType string, body []byte) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := imageTypes[contentType]; !ok {
		verr := &common.ValidationError{}
		verr.Add("file", "unsupported image type")
		return "", verr
	}
	if len(body) == 0 {
		verr := &common.ValidationError{}
		verr.Add("file", "file is empty")
		return "", verr
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 config: %w", err)
	}

	bucket := s.config.S3Bucket
	key := StorageKey(s.now().UTC())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, s.httpClient, req.URL, contentType, body); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.log.Info(ctx, "image uploaded", "key", key, "bytes", len(body))
	return s.PublicURL(key)
}

// PublicURL joins the configured public base with key.
func (s *MediaService) PublicURL(key string) (string, error) {
	base := strings.TrimRight(s.config.S3PublicBaseURL, "/")
	if base == "" {
		return "", errors.New("public base url is not configured")
	}
	return base + "/" + key, nil
}
