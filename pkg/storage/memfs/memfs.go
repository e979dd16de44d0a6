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

// Package memfs provides a volatile in-memory backend for deterministic tests.
package memfs

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/checksum"
	"github.com/powersimdata/scenariofs/pkg/storage"
)

var (
	_ storage.Backend   = (*backend)(nil)
	_ storage.SysPather = (*backend)(nil)
)

type backend struct {
	files map[string][]byte
	name  string
	mu    sync.RWMutex
}

// New creates an empty in-memory backend.
func New(name string) storage.Backend {
	return &backend{name: name, files: make(map[string][]byte)}
}

func (b *backend) Name() string { return b.name }

func (b *backend) Writable() bool { return true }

// SysPath returns a synthetic location. In-memory files have no OS path.
func (b *backend) SysPath(p string) string {
	return "mem://" + b.name + "/" + p
}

func (b *backend) Exists(_ context.Context, p string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.files[p]
	return ok, nil
}

func (b *backend) OpenRead(_ context.Context, p string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.files[p]
	if !ok {
		return nil, errors.Wrap(storage.ErrNotFound, p)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *backend) OpenWrite(_ context.Context, p string) (io.WriteCloser, error) {
	return &memWriter{backend: b, path: p}, nil
}

func (b *backend) Hash(_ context.Context, p string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.files[p]
	if !ok {
		return "", errors.Wrap(storage.ErrNotFound, p)
	}
	return checksum.Sum(data), nil
}

func (b *backend) Move(_ context.Context, src, dst string, overwrite bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[src]
	if !ok {
		return errors.Wrap(storage.ErrNotFound, src)
	}
	if _, occupied := b.files[dst]; occupied && !overwrite {
		return errors.Wrap(storage.ErrAlreadyExists, dst)
	}
	b.files[dst] = data
	delete(b.files, src)
	return nil
}

func (b *backend) IsDir(_ context.Context, p string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	prefix := strings.TrimSuffix(p, "/") + "/"
	for name := range b.files {
		if strings.HasPrefix(name, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (b *backend) DeleteMatching(_ context.Context, pattern string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name := range b.files {
		ok, err := path.Match(pattern, name)
		if err != nil {
			return err
		}
		if ok {
			delete(b.files, name)
		}
	}
	return nil
}

func (b *backend) Close() error { return nil }

// memWriter buffers writes and commits the file on Close, so a reader can
// never observe a half-written entry.
type memWriter struct {
	backend *backend
	path    string
	buf     bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	w.backend.files[w.path] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}
