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

	gcstorage "cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/powersimdata/scenariofs/pkg/checksum"
	"github.com/powersimdata/scenariofs/pkg/storage"
)

var _ storage.Backend = (*gcsFS)(nil)

type gcsFS struct {
	client   *gcstorage.Client
	bucket   string
	basePath string
	readOnly
}

// newGCS expects a URL of the form gs://<bucket>[/<base>].
func newGCS(ctx context.Context, name string, u *url.URL) (storage.Backend, error) {
	bucket, basePath := splitBucketAndBase(u)
	if bucket == "" {
		return nil, errors.New("bucket name must be present in the container URL")
	}
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "create GCS client")
	}
	return &gcsFS{
		client:   client,
		bucket:   bucket,
		basePath: basePath,
		readOnly: readOnly{name: name},
	}, nil
}

func (g *gcsFS) fullPath(p string) string {
	if g.basePath == "" {
		return p
	}
	return path.Join(g.basePath, p)
}

func (g *gcsFS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(g.fullPath(p)).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcstorage.ErrObjectNotExist) {
		return false, nil
	}
	return false, err
}

func (g *gcsFS) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(g.bucket).Object(g.fullPath(p)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, errors.Wrap(storage.ErrNotFound, p)
		}
		return nil, err
	}
	return r, nil
}

func (g *gcsFS) Hash(ctx context.Context, p string) (string, error) {
	r, err := g.OpenRead(ctx, p)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return checksum.Compute(r)
}

func (g *gcsFS) IsDir(ctx context.Context, p string) (bool, error) {
	prefix := g.fullPath(strings.TrimSuffix(p, "/") + "/")
	it := g.client.Bucket(g.bucket).Objects(ctx, &gcstorage.Query{Prefix: prefix})
	_, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *gcsFS) Close() error {
	return g.client.Close()
}
