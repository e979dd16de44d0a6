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

// Package blob provides read-only object store backends. The provider is
// picked from the destination URL scheme:
//
//	azure://<account>/<container>[/<base>]
//	s3://<bucket>[/<base>]
//	gs://<bucket>[/<base>]
//
// Blob containers hold published datasets; they are append-only from the
// publisher's side and never mutated through this layer, so every provider
// here rejects writes with ErrNotWritable.
package blob

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/storage"
)

// Config carries provider-specific credentials. A nil section means
// anonymous access, which is enough for public containers.
type Config struct {
	Azure *AzureConfig
	S3    *S3Config
}

// AzureConfig configures access to Azure Blob Storage.
type AzureConfig struct {
	AccountKey string
	SASToken   string
	Endpoint   string
}

// S3Config configures access to S3.
type S3Config struct {
	Profile string
	Region  string
}

// New creates a read-only backend for the container at dest.
func New(ctx context.Context, name, dest string, cfg *Config) (storage.Backend, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	u, err := url.Parse(dest)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid container URL %s", dest)
	}
	switch u.Scheme {
	case "azure":
		return newAzure(ctx, name, u, cfg.Azure)
	case "s3":
		return newS3(ctx, name, u, cfg.S3)
	case "gs":
		return newGCS(ctx, name, u)
	default:
		return nil, errors.Errorf("unsupported container scheme: %s", u.Scheme)
	}
}

// splitBucketAndBase extracts the bucket (or container) and base path from a
// parsed URL of the form scheme://bucket/base.
func splitBucketAndBase(u *url.URL) (bucket, basePath string) {
	if u.Host != "" {
		return u.Host, strings.Trim(u.Path, "/")
	}
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// readOnly supplies the rejected mutations shared by all providers.
type readOnly struct {
	name string
}

func (r readOnly) Name() string { return r.name }

func (readOnly) Writable() bool { return false }

func (r readOnly) OpenWrite(context.Context, string) (io.WriteCloser, error) {
	return nil, errors.Wrapf(storage.ErrNotWritable, "%s is a read-only container", r.name)
}

func (r readOnly) Move(context.Context, string, string, bool) error {
	return errors.Wrapf(storage.ErrNotWritable, "%s is a read-only container", r.name)
}

func (r readOnly) DeleteMatching(context.Context, string) error {
	return errors.Wrapf(storage.ErrNotWritable, "%s is a read-only container", r.name)
}
