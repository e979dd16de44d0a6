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

// Package storage defines the contract one storage provider must satisfy to
// participate in the tiered data access layer. Paths are slash-separated,
// relative to the backend's root, and identical across all backends.
package storage

import (
	"context"
	"io"

	"go.uber.org/multierr"
)

// Backend is one concrete storage provider: a local cache directory, a host
// reachable over a remote shell, or an object store container. All mutating
// operations are synchronous; nothing is buffered across calls.
type Backend interface {
	// Name identifies the backend within a store. Unique per store.
	Name() string

	// Writable reports whether the backend accepts writes.
	Writable() bool

	// Exists reports presence of path. A merely-absent path is not an error.
	Exists(ctx context.Context, path string) (bool, error)

	// OpenRead opens path for reading. Fails with ErrNotFound if absent.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)

	// OpenWrite opens path for writing, creating parent directories as
	// needed. Fails with ErrNotWritable on a read-only backend.
	OpenWrite(ctx context.Context, path string) (io.WriteCloser, error)

	// Hash returns the hex SHA-256 digest of the file at path.
	// Fails with ErrNotFound if absent.
	Hash(ctx context.Context, path string) (string, error)

	// Move renames src to dst. Without overwrite, an occupied dst fails
	// with ErrAlreadyExists.
	Move(ctx context.Context, src, dst string, overwrite bool) error

	// IsDir reports whether path names a directory (or prefix, for object
	// stores).
	IsDir(ctx context.Context, path string) (bool, error)

	// DeleteMatching removes every file whose path matches the glob
	// pattern. The interactive confirmation gate lives in the facade, not
	// here.
	DeleteMatching(ctx context.Context, pattern string) error

	// Close releases the underlying session or connection.
	Close() error
}

// SysPather is implemented by backends whose files live on the caller's own
// filesystem and therefore have a meaningful OS-level path.
type SysPather interface {
	SysPath(path string) string
}

// Runner is implemented by backends that can execute shell commands on the
// host owning the files. The push protocol requires it.
type Runner interface {
	// Run executes command and blocks until it finishes. Any output on the
	// error channel means the command failed.
	Run(ctx context.Context, command string) (stdout, stderr string, err error)
}

// WriteAll streams r into path on b, closing the sink on every exit path.
func WriteAll(ctx context.Context, b Backend, path string, r io.Reader) (err error) {
	w, err := b.OpenWrite(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, w.Close())
	}()
	_, err = io.Copy(w, r)
	return err
}
