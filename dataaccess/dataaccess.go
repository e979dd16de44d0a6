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

// Package dataaccess is the public surface of the tiered data access layer.
// A DataAccess resolves the same logical path against a local cache, a
// shared server and long-term blob storage, and publishes local edits back
// to the canonical remote copy through a checksum-gated push.
package dataaccess

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/powersimdata/scenariofs/pkg/codec"
	"github.com/powersimdata/scenariofs/pkg/logger"
	"github.com/powersimdata/scenariofs/pkg/storage"
	"github.com/powersimdata/scenariofs/pkg/storage/blob"
	"github.com/powersimdata/scenariofs/pkg/storage/multi"
	"github.com/powersimdata/scenariofs/pkg/storage/sshfs"
)

// DataAccess is the interface to a local or remote data store.
// Each call is a self-contained operation; two concurrent pushes to the same
// rename path are arbitrated by the remote lock, nothing else is serialized.
type DataAccess interface {
	// Get hands the caller a reader over the locally cached file, fetching
	// it from the store first when the cache misses. The reader is released
	// when fn returns, on every exit path.
	Get(ctx context.Context, filepath string, fn func(r io.Reader, localPath string) error) error

	// Write serializes data by the path's extension and stores it.
	// Create-only: an occupied path anywhere in the store fails with
	// ErrAlreadyExists.
	Write(ctx context.Context, filepath string, data interface{}, opts ...WriteOption) error

	// CopyFrom transfers a file from the store into the local cache. The
	// transfer lands in a staging location first so readers never observe a
	// half-written file at the final path.
	CopyFrom(ctx context.Context, fileName, fromDir string) error

	// Copy duplicates a file within the store. A directory dest gets the
	// source's base name appended.
	Copy(ctx context.Context, src, dest string) error

	// Remove deletes files matching pattern. With confirm, the operation is
	// gated on an interactive yes.
	Remove(ctx context.Context, pattern string, confirm bool) error

	// Checksum returns the SHA-256 digest of the file, wherever it resolves.
	Checksum(ctx context.Context, relativePath string) (string, error)

	// Push publishes the locally edited fileName as the new canonical
	// version at rename, only if the remote copy still matches checksum.
	Push(ctx context.Context, fileName, checksum, rename string) error

	// TmpFolder returns the scratch folder for a scenario.
	TmpFolder(scenarioID string) string

	// GetProfileVersion merges locally cached and remotely listed profile
	// versions, duplicates removed.
	GetProfileVersion(ctx context.Context, grid, kind string) ([]string, error)

	// Close releases every backend session.
	Close() error
}

// VersionResolver lists available profile versions. Implemented by the
// profile package; consumed here through its two accessors only.
type VersionResolver interface {
	CloudVersions(ctx context.Context, grid, kind string) ([]string, error)
	LocalVersions(ctx context.Context, grid, kind string) ([]string, error)
}

// Confirmer answers the destructive-operation prompt. Returning false
// cancels the operation.
type Confirmer func(pattern string) bool

// Config gathers everything a DataAccess needs. The zero value is completed
// by Sanitize.
type Config struct {
	// Server locates the shared data server. An empty Host disables the
	// remote-shell backend.
	Server sshfs.Config
	// LocalDir is the local cache root. Defaults to $HOME/scenariofs.
	LocalDir string
	// ExecuteDir is the remote scratch area for scenario runs.
	ExecuteDir string
	// ScenarioContainer is the blob URL of published scenario data.
	ScenarioContainer string
	// ProfileContainer is the blob URL of published profiles.
	ProfileContainer string
	// Blob carries provider credentials for the containers.
	Blob blob.Config
	// OperationTimeout bounds each remote command. Defaults to 5m.
	OperationTimeout time.Duration
}

// Sanitize fills defaults in place.
func (c *Config) Sanitize() {
	if c.LocalDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		c.LocalDir = path.Join(home, "scenariofs")
	}
	if c.ExecuteDir == "" {
		c.ExecuteDir = "tmp"
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = 5 * time.Minute
	}
}

// StdinConfirmer prompts on stdout and reads the answer from stdin.
// Anything but an explicit "y" cancels.
func StdinConfirmer(pattern string) bool {
	fmt.Printf("Delete %q? [y/n] (default is 'n') ", pattern)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// base carries the operations shared by every variant.
type base struct {
	localFS  storage.Backend
	store    *multi.Store
	versions VersionResolver
	confirm  Confirmer
	l        *logger.Logger
	cfg      Config
}

// SetConfirmer replaces the interactive prompt used by Remove. Passing nil
// restores the stdin prompt.
func (d *base) SetConfirmer(c Confirmer) {
	d.confirm = c
}

func (d *base) Get(ctx context.Context, filepath string, fn func(r io.Reader, localPath string) error) error {
	ok, err := d.localFS.Exists(ctx, filepath)
	if err != nil {
		return err
	}
	if !ok {
		d.l.Info().Str("path", filepath).Msg("not found on local machine")
		if err := d.CopyFrom(ctx, path.Base(filepath), path.Dir(filepath)); err != nil {
			return err
		}
	}
	r, err := d.localFS.OpenRead(ctx, filepath)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r, d.sysPath(filepath))
}

func (d *base) sysPath(p string) string {
	if sp, ok := d.localFS.(storage.SysPather); ok {
		return sp.SysPath(p)
	}
	return p
}

// WriteOption adjusts a single Write call.
type WriteOption func(*writeOptions)

type writeOptions struct {
	codec     codec.Codec
	saveLocal bool
}

// NoLocalCopy skips mirroring the write into the local cache.
func NoLocalCopy() WriteOption {
	return func(o *writeOptions) { o.saveLocal = false }
}

// WithCodec overrides the extension-dispatched serializer.
func WithCodec(c codec.Codec) WriteOption {
	return func(o *writeOptions) { o.codec = c }
}

func (d *base) Write(ctx context.Context, filepath string, data interface{}, opts ...WriteOption) error {
	options := writeOptions{saveLocal: true}
	for _, opt := range opts {
		opt(&options)
	}
	if err := d.checkAbsent(ctx, filepath); err != nil {
		return err
	}
	if options.codec == nil {
		c, err := codec.ForPath(filepath)
		if err != nil {
			return err
		}
		options.codec = c
	}

	// Serialized once; the same bytes go to the store and the mirror so
	// both copies are identical.
	var buf bytes.Buffer
	if err := options.codec.Encode(&buf, data); err != nil {
		return err
	}

	d.l.Info().Str("path", filepath).Msg("writing")
	writable, err := d.store.Writable()
	if err != nil {
		return err
	}
	if err := storage.WriteAll(ctx, writable, filepath, bytes.NewReader(buf.Bytes())); err != nil {
		return err
	}
	if options.saveLocal && writable != d.localFS {
		return storage.WriteAll(ctx, d.localFS, filepath, bytes.NewReader(buf.Bytes()))
	}
	return nil
}

// checkAbsent fails with ErrAlreadyExists naming the occupied backend.
func (d *base) checkAbsent(ctx context.Context, filepath string) error {
	b, ok, err := d.store.Locate(ctx, filepath)
	if err != nil {
		return err
	}
	if ok {
		return errors.Wrapf(storage.ErrAlreadyExists, "%s already exists on %s", filepath, b.Name())
	}
	return nil
}

func (d *base) CopyFrom(ctx context.Context, fileName, fromDir string) error {
	fromPath := path.Join(fromDir, fileName)
	cached, err := d.localFS.Exists(ctx, fromPath)
	if err != nil {
		return err
	}
	if cached {
		// Nothing to transfer; the cached copy is authoritative until the
		// caller explicitly refreshes it.
		d.l.Debug().Str("path", fromPath).Msg("already cached")
		return nil
	}

	src, ok, err := d.store.Locate(ctx, fromPath)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(storage.ErrNotFound, "%s not found on any of %v", fromPath, d.store.Names())
	}

	d.l.Info().Str("file", fileName).Str("from", src.Name()).Msg("transferring")
	r, err := src.OpenRead(ctx, fromPath)
	if err != nil {
		return err
	}
	defer r.Close()

	// The stream lands fully at a staging path inside the cache, then a
	// rename makes it visible at the final path.
	stagingRoot := path.Join(".staging", uuid.NewString())
	staging := path.Join(stagingRoot, fromPath)
	cleanup := func() error {
		return multierr.Append(
			d.localFS.DeleteMatching(ctx, staging),
			d.localFS.DeleteMatching(ctx, stagingRoot),
		)
	}
	if err := storage.WriteAll(ctx, d.localFS, staging, r); err != nil {
		return multierr.Append(err, cleanup())
	}
	if err := d.localFS.Move(ctx, staging, fromPath, true); err != nil {
		return multierr.Append(err, cleanup())
	}
	return cleanup()
}

func (d *base) Copy(ctx context.Context, src, dest string) error {
	writable, err := d.store.Writable()
	if err != nil {
		return err
	}
	isDir, err := writable.IsDir(ctx, dest)
	if err != nil {
		return err
	}
	if isDir {
		dest = path.Join(dest, path.Base(src))
	}
	r, _, err := d.store.OpenRead(ctx, src)
	if err != nil {
		return err
	}
	defer r.Close()
	return storage.WriteAll(ctx, writable, dest, r)
}

func (d *base) Remove(ctx context.Context, pattern string, confirm bool) error {
	if confirm {
		confirmer := d.confirm
		if confirmer == nil {
			confirmer = StdinConfirmer
		}
		if !confirmer(pattern) {
			d.l.Info().Str("pattern", pattern).Msg("operation cancelled")
			return nil
		}
	}
	writable, err := d.store.Writable()
	if err != nil {
		return err
	}
	if err := writable.DeleteMatching(ctx, pattern); err != nil {
		return err
	}
	d.l.Info().Str("pattern", pattern).Msg("removed")
	return nil
}

func (d *base) Checksum(ctx context.Context, relativePath string) (string, error) {
	return d.store.Hash(ctx, relativePath)
}

func (d *base) TmpFolder(scenarioID string) string {
	return path.Join(d.cfg.ExecuteDir, "scenario_"+scenarioID)
}

func (d *base) GetProfileVersion(ctx context.Context, grid, kind string) ([]string, error) {
	if d.versions == nil {
		return nil, nil
	}
	cloud, err := d.versions.CloudVersions(ctx, grid, kind)
	if err != nil {
		return nil, err
	}
	local, err := d.versions.LocalVersions(ctx, grid, kind)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(cloud)+len(local))
	var versions []string
	for _, v := range append(cloud, local...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		versions = append(versions, v)
	}
	return versions, nil
}

func (d *base) Close() error {
	return d.store.Close()
}

// moveAcross transfers a file between two backends: a full copy to the
// destination followed by removal of the source.
func moveAcross(ctx context.Context, src storage.Backend, srcPath string, dst storage.Backend, dstPath string) error {
	r, err := src.OpenRead(ctx, srcPath)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := storage.WriteAll(ctx, dst, dstPath, r); err != nil {
		return err
	}
	return src.DeleteMatching(ctx, srcPath)
}
