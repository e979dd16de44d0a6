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
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/powersimdata/scenariofs/pkg/storage"
)

func TestSplitBucketAndBase(t *testing.T) {
	tests := []struct {
		dest   string
		bucket string
		base   string
	}{
		{"azure://besciences/profiles", "besciences", "profiles"},
		{"s3://scenario-data", "scenario-data", ""},
		{"s3://scenario-data/published/v2", "scenario-data", "published/v2"},
		{"gs://profiles/raw", "profiles", "raw"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.dest)
		require.NoError(t, err)
		bucket, base := splitBucketAndBase(u)
		require.Equal(t, tt.bucket, bucket, tt.dest)
		require.Equal(t, tt.base, base, tt.dest)
	}
}

func TestNewRejectsUnknownScheme(t *testing.T) {
	_, err := New(context.Background(), "x", "ftp://host/container", nil)
	require.Error(t, err)
}

func TestReadOnlyRejectsMutation(t *testing.T) {
	ro := readOnly{name: "profile_fs"}
	_, err := ro.OpenWrite(context.Background(), "a.csv")
	require.ErrorIs(t, err, storage.ErrNotWritable)
	require.ErrorIs(t, ro.Move(context.Background(), "a", "b", true), storage.ErrNotWritable)
	require.ErrorIs(t, ro.DeleteMatching(context.Background(), "*"), storage.ErrNotWritable)
}
