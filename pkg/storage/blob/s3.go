// Licensed to Apache Software Foundation (ASF) under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Apache Software Foundation (ASF) licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package blob

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/checksum"
	"github.com/powersimdata/scenariofs/pkg/storage"
)

var _ storage.Backend = (*s3FS)(nil)

type s3FS struct {
	client   *s3.Client
	bucket   string
	basePath string
	readOnly
}

// newS3 expects a URL of the form s3://<bucket>[/<base>].
func newS3(ctx context.Context, name string, u *url.URL, cfg *S3Config) (storage.Backend, error) {
	if cfg == nil {
		cfg = &S3Config{}
	}
	bucket, basePath := splitBucketAndBase(u)
	if bucket == "" {
		return nil, errors.New("bucket name must be present in the container URL")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.WithMessage(err, "load AWS config")
	}

	return &s3FS{
		client:   s3.NewFromConfig(awsCfg),
		bucket:   bucket,
		basePath: basePath,
		readOnly: readOnly{name: name},
	}, nil
}

func (s *s3FS) fullPath(p string) string {
	if s.basePath == "" {
		return p
	}
	return path.Join(s.basePath, p)
}

func (s *s3FS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}

func (s *s3FS) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, errors.Wrap(storage.ErrNotFound, p)
		}
		return nil, err
	}
	return resp.Body, nil
}

func (s *s3FS) Hash(ctx context.Context, p string) (string, error) {
	r, err := s.OpenRead(ctx, p)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return checksum.Compute(r)
}

func (s *s3FS) IsDir(ctx context.Context, p string) (bool, error) {
	prefix := s.fullPath(strings.TrimSuffix(p, "/") + "/")
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(resp.Contents) > 0, nil
}

func (s *s3FS) Close() error {
	// No resources to close for S3 client
	return nil
}
