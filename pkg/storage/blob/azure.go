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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/checksum"
	"github.com/powersimdata/scenariofs/pkg/storage"
)

var _ storage.Backend = (*azureFS)(nil)

type azureFS struct {
	client    *azblob.Client
	container string
	basePath  string
	readOnly
}

// newAzure expects a URL of the form azure://<account>/<container>[/<base>].
func newAzure(ctx context.Context, name string, u *url.URL, cfg *AzureConfig) (storage.Backend, error) {
	if cfg == nil {
		cfg = &AzureConfig{}
	}
	account := u.Host
	if account == "" {
		return nil, errors.New("account name must be present in the container URL")
	}
	container, basePath := splitBucketAndBase(&url.URL{Path: u.Path})
	if container == "" {
		return nil, errors.New("container name must be present in the container URL")
	}

	client, err := buildAzureClient(account, cfg)
	if err != nil {
		return nil, err
	}

	fs := &azureFS{
		client:    client,
		container: container,
		basePath:  basePath,
		readOnly:  readOnly{name: name},
	}
	// A probe keeps an unreachable container from surfacing later as a
	// confusing read failure.
	if _, err := fs.list(ctx, ""); err != nil {
		return nil, errors.Wrapf(storage.ErrConnectionUnavailable, "container %s: %v", container, err)
	}
	return fs, nil
}

func buildAzureClient(account string, cfg *AzureConfig) (*azblob.Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	}
	if connStr := os.Getenv("AZURE_STORAGE_CONNECTION_STRING"); connStr != "" {
		return azblob.NewClientFromConnectionString(connStr, nil)
	}
	if cfg.SASToken != "" {
		sas := strings.TrimPrefix(cfg.SASToken, "?")
		var serviceURL string
		if strings.Contains(endpoint, "?") {
			serviceURL = endpoint + "&" + sas
		} else {
			serviceURL = endpoint + "?" + sas
		}
		return azblob.NewClientWithNoCredential(serviceURL, nil)
	}
	if cfg.AccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(account, cfg.AccountKey)
		if err != nil {
			return nil, errors.WithMessage(err, "invalid shared key credential")
		}
		return azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	}
	// Published dataset containers allow public read access.
	return azblob.NewClientWithNoCredential(endpoint, nil)
}

func (a *azureFS) fullPath(p string) string {
	if a.basePath == "" {
		return p
	}
	return path.Join(a.basePath, p)
}

func (a *azureFS) Exists(ctx context.Context, p string) (bool, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(a.fullPath(p))
	_, err := blobClient.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func (a *azureFS) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, a.fullPath(p), nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, errors.Wrap(storage.ErrNotFound, p)
		}
		return nil, err
	}
	return resp.Body, nil
}

func (a *azureFS) Hash(ctx context.Context, p string) (string, error) {
	r, err := a.OpenRead(ctx, p)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return checksum.Compute(r)
}

func (a *azureFS) IsDir(ctx context.Context, p string) (bool, error) {
	files, err := a.list(ctx, strings.TrimSuffix(p, "/")+"/")
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

func (a *azureFS) list(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := a.fullPath(prefix)
	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{Prefix: &fullPrefix})
	basePrefix := a.basePath
	if basePrefix != "" && !strings.HasSuffix(basePrefix, "/") {
		basePrefix += "/"
	}
	var files []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Segment.BlobItems {
			key := *item.Name
			if a.basePath != "" {
				key = strings.TrimPrefix(key, basePrefix)
			}
			files = append(files, key)
		}
	}
	return files, nil
}

func (a *azureFS) Close() error {
	// azblob.Client is stateless, nothing to close
	return nil
}
