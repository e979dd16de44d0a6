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

// Package local provides the on-disk cache backend.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/checksum"
	"github.com/powersimdata/scenariofs/pkg/storage"
)

const dirPerm = 0o755

var (
	_ storage.Backend   = (*backend)(nil)
	_ storage.SysPather = (*backend)(nil)
)

type backend struct {
	name    string
	baseDir string
}

// New creates a backend rooted at baseDir, creating it if needed.
func New(name, baseDir string) (storage.Backend, error) {
	if err := os.MkdirAll(baseDir, dirPerm); err != nil {
		return nil, err
	}
	return &backend{name: name, baseDir: baseDir}, nil
}

func (b *backend) Name() string { return b.name }

func (b *backend) Writable() bool { return true }

// SysPath returns the OS-level location of a logical path.
func (b *backend) SysPath(path string) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(path))
}

func (b *backend) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(b.SysPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (b *backend) OpenRead(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(b.SysPath(path))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(storage.ErrNotFound, path)
	}
	return f, err
}

func (b *backend) OpenWrite(_ context.Context, path string) (io.WriteCloser, error) {
	fullPath := b.SysPath(path)
	if err := os.MkdirAll(filepath.Dir(fullPath), dirPerm); err != nil {
		return nil, err
	}
	return os.Create(fullPath)
}

func (b *backend) Hash(ctx context.Context, path string) (string, error) {
	f, err := b.OpenRead(ctx, path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return checksum.Compute(f)
}

func (b *backend) Move(_ context.Context, src, dst string, overwrite bool) error {
	dstPath := b.SysPath(dst)
	if !overwrite {
		if _, err := os.Stat(dstPath); err == nil {
			return errors.Wrap(storage.ErrAlreadyExists, dst)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), dirPerm); err != nil {
		return err
	}
	err := os.Rename(b.SysPath(src), dstPath)
	if os.IsNotExist(err) {
		return errors.Wrap(storage.ErrNotFound, src)
	}
	return err
}

func (b *backend) IsDir(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(b.SysPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (b *backend) DeleteMatching(_ context.Context, pattern string) error {
	matches, err := filepath.Glob(filepath.Join(b.baseDir, filepath.FromSlash(pattern)))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			return err
		}
	}
	return nil
}

func (b *backend) Close() error { return nil }
