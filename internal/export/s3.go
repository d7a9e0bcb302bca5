// Package export publishes scan reports to S3 so CI pipelines and
// dashboards can pick them up.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/codeguardian/guardian/internal/models"
	"github.com/codeguardian/guardian/pkg/logger"
)

// ObjectPutter is the slice of the S3 API the exporter uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Exporter uploads analysis results as JSON objects.
type Exporter struct {
	client ObjectPutter
	logger logger.Logger
	bucket string
	prefix string
	now    func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger overrides the exporter logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Exporter) {
		e.logger = log
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// New builds an exporter from default AWS credentials.
func New(ctx context.Context, bucket, prefix, region string, opts ...Option) (*Exporter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, prefix, opts...), nil
}

// NewWithClient builds an exporter around an existing S3 client.
func NewWithClient(client ObjectPutter, bucket, prefix string, opts ...Option) *Exporter {
	e := &Exporter{
		client: client,
		logger: logger.GetGlobalLogger(),
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export uploads one analysis result keyed by account and timestamp.
// It returns the object key.
func (e *Exporter) Export(ctx context.Context, accountID string, result *models.AnalysisResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	key := e.objectKey(accountID)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading report to s3://%s/%s: %w", e.bucket, key, err)
	}

	e.logger.Info("report exported", "bucket", e.bucket, "key", key, "bytes", len(data))
	return key, nil
}

func (e *Exporter) objectKey(accountID string) string {
	if accountID == "" {
		accountID = "anonymous"
	}
	ts := e.now().UTC().Format("2006-01-02T15-04-05Z")
	if e.prefix != "" {
		return fmt.Sprintf("%s/%s/%s.json", e.prefix, accountID, ts)
	}
	return fmt.Sprintf("%s/%s.json", accountID, ts)
}
