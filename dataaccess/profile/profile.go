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

// Package profile resolves available profile versions. Published profiles
// live in a public blob container under raw/<grid>/<kind>_<version>.csv;
// downloaded ones sit under the same layout in the local cache.
package profile

import (
	"context"
	"encoding/xml"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/logger"
)

// Resolver lists profile versions from the public container and the local
// cache. It satisfies dataaccess.VersionResolver.
type Resolver struct {
	client   *resty.Client
	l        *logger.Logger
	localDir string
}

// New creates a Resolver. containerURL is the public container endpoint,
// e.g. https://account.blob.core.windows.net/profiles. localDir is the
// cache root; empty disables the local side.
func New(containerURL, localDir string) *Resolver {
	return &Resolver{
		client:   resty.New().SetBaseURL(strings.TrimSuffix(containerURL, "/")),
		localDir: localDir,
		l:        logger.GetLogger("profile"),
	}
}

// listing mirrors the container list response body.
type listing struct {
	XMLName    xml.Name `xml:"EnumerationResults"`
	NextMarker string   `xml:"NextMarker"`
	Blobs      struct {
		Blob []struct {
			Name string `xml:"Name"`
		} `xml:"Blob"`
	} `xml:"Blobs"`
}

// CloudVersions lists versions published for the grid and kind. The
// container's anonymous list endpoint is paged; all pages are consumed.
func (r *Resolver) CloudVersions(ctx context.Context, grid, kind string) ([]string, error) {
	var names []string
	marker := ""
	for {
		req := r.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"restype": "container",
				"comp":    "list",
				"prefix":  "raw/" + grid + "/",
			})
		if marker != "" {
			req.SetQueryParam("marker", marker)
		}
		resp, err := req.Get("")
		if err != nil {
			return nil, errors.WithMessage(err, "failed to list the profile container")
		}
		if resp.IsError() {
			return nil, errors.Errorf("profile container listing returned %s", resp.Status())
		}
		var page listing
		if err := xml.Unmarshal(resp.Body(), &page); err != nil {
			return nil, errors.WithMessage(err, "malformed container listing")
		}
		for _, b := range page.Blobs.Blob {
			names = append(names, path.Base(b.Name))
		}
		if page.NextMarker == "" {
			break
		}
		marker = page.NextMarker
	}
	return extractVersions(names, kind), nil
}

// LocalVersions lists versions already present in the cache.
func (r *Resolver) LocalVersions(_ context.Context, grid, kind string) ([]string, error) {
	if r.localDir == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(r.localDir, "raw", grid, kind+"_*.csv"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return extractVersions(names, kind), nil
}

// extractVersions strips <kind>_ and .csv from matching file names, keeping
// the order deterministic.
func extractVersions(names []string, kind string) []string {
	prefix := kind + "_"
	var versions []string
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".csv"))
	}
	sort.Strings(versions)
	return versions
}
