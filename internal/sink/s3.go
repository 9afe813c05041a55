// Copyright 2025, 2026 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/novatechflow/kafsource/internal/config"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Writer stores one JSON-lines object per batch and a sibling
// checkpoint object under <namespace>/<topic>/.
type S3Writer struct {
	api       s3API
	bucket    string
	region    string
	namespace string
}

// NewS3Writer builds the AWS-backed writer and ensures the bucket exists.
func NewS3Writer(ctx context.Context, cfg config.Config) (*S3Writer, error) {
	if cfg.Sink.Bucket == "" {
		return nil, errors.New("sink bucket required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Sink.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Sink.Region))
	}
	accessKey := os.Getenv("KAFSOURCE_S3_ACCESS_KEY")
	secretKey := os.Getenv("KAFSOURCE_S3_SECRET_KEY")
	if accessKey != "" && secretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, os.Getenv("KAFSOURCE_S3_SESSION_TOKEN"))))
	}
	if cfg.Sink.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{URL: cfg.Sink.Endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(opts *s3.Options) {
		if cfg.Sink.PathStyle {
			opts.UsePathStyle = true
		}
	})

	writer := newS3WriterWithAPI(client, cfg.Sink.Bucket, cfg.Sink.Region, cfg.Sink.Namespace)
	if err := writer.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return writer, nil
}

func newS3WriterWithAPI(api s3API, bucket, region, namespace string) *S3Writer {
	return &S3Writer{
		api:       api,
		bucket:    bucket,
		region:    region,
		namespace: strings.Trim(namespace, "/"),
	}
}

func (w *S3Writer) Write(ctx context.Context, batch Batch) error {
	body, err := encodeRecords(batch.Records)
	if err != nil {
		return err
	}

	if err := w.putObject(ctx, w.batchKey(batch), body); err != nil {
		return err
	}
	return w.putObject(ctx, w.checkpointKey(batch), []byte(batch.Checkpoint))
}

func (w *S3Writer) Close(ctx context.Context) error {
	return nil
}

func (w *S3Writer) batchKey(batch Batch) string {
	return fmt.Sprintf("%s/%s/batch-%s.jsonl", w.namespace, batch.Topic, batch.CycleID)
}

func (w *S3Writer) checkpointKey(batch Batch) string {
	return fmt.Sprintf("%s/%s/batch-%s.checkpoint", w.namespace, batch.Topic, batch.CycleID)
}

func (w *S3Writer) putObject(ctx context.Context, key string, body []byte) error {
	_, err := w.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (w *S3Writer) ensureBucket(ctx context.Context) error {
	_, err := w.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(w.bucket)})
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || (apiErr.ErrorCode() != "NotFound" && apiErr.ErrorCode() != "NoSuchBucket") {
		return fmt.Errorf("head bucket %s: %w", w.bucket, err)
	}

	_, err = w.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(w.bucket)})
	if err != nil {
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return fmt.Errorf("create bucket %s: %w", w.bucket, err)
	}
	return nil
}
