package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// SlipStore archives rendered slips and returns a reference to them.
type SlipStore interface {
	Put(ctx context.Context, appointmentNumber string, body []byte) (string, error)
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3SlipStore writes slips to slips/{number}.html in a bucket.
type S3SlipStore struct {
	client s3API
	bucket string
}

func NewS3SlipStore(client s3API, bucket string) *S3SlipStore {
	if client == nil {
		panic("notify: s3 client required")
	}
	return &S3SlipStore{client: client, bucket: bucket}
}

func slipKey(appointmentNumber string) string {
	return "slips/" + appointmentNumber + ".html"
}

func (s *S3SlipStore) Put(ctx context.Context, appointmentNumber string, body []byte) (string, error) {
	key := slipKey(appointmentNumber)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("notify: upload slip %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
