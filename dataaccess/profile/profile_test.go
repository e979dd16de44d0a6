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

package profile

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func containerPage(names []string, next string) string {
	body := "<?xml version=\"1.0\" encoding=\"utf-8\"?><EnumerationResults><Blobs>"
	for _, n := range names {
		body += fmt.Sprintf("<Blob><Name>%s</Name></Blob>", n)
	}
	return body + fmt.Sprintf("</Blobs><NextMarker>%s</NextMarker></EnumerationResults>", next)
}

func TestCloudVersions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "container", r.URL.Query().Get("restype"))
		require.Equal(t, "raw/usa_tamu/", r.URL.Query().Get("prefix"))
		if r.URL.Query().Get("marker") == "" {
			fmt.Fprint(w, containerPage([]string{
				"raw/usa_tamu/demand_v1.csv",
				"raw/usa_tamu/demand_v2.csv",
			}, "page2"))
			return
		}
		fmt.Fprint(w, containerPage([]string{
			"raw/usa_tamu/demand_v3.csv",
			"raw/usa_tamu/solar_v1.csv",
			"raw/usa_tamu/README",
		}, ""))
	}))
	defer srv.Close()

	r := New(srv.URL, "")
	versions, err := r.CloudVersions(context.Background(), "usa_tamu", "demand")
	require.NoError(t, err)
	require.Equal(t, []string{"v1", "v2", "v3"}, versions)
}

func TestCloudVersionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").CloudVersions(context.Background(), "usa_tamu", "demand")
	require.Error(t, err)
}

func TestLocalVersions(t *testing.T) {
	dir := t.TempDir()
	gridDir := filepath.Join(dir, "raw", "europe_tub")
	require.NoError(t, os.MkdirAll(gridDir, 0o755))
	for _, name := range []string{"wind_v0.csv", "wind_v1.csv", "hydro_v0.csv", "wind_v1.csv.temp"} {
		require.NoError(t, os.WriteFile(filepath.Join(gridDir, name), []byte("x"), 0o600))
	}

	r := New("http://unused.invalid", dir)
	versions, err := r.LocalVersions(context.Background(), "europe_tub", "wind")
	require.NoError(t, err)
	require.Equal(t, []string{"v0", "v1"}, versions)

	versions, err = r.LocalVersions(context.Background(), "europe_tub", "demand")
	require.NoError(t, err)
	require.Empty(t, versions)
}
