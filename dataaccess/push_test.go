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

package dataaccess

import (
	"context"
	"io"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/powersimdata/scenariofs/pkg/logger"
	"github.com/powersimdata/scenariofs/pkg/storage"
	"github.com/powersimdata/scenariofs/pkg/storage/memfs"
	"github.com/powersimdata/scenariofs/pkg/storage/multi"
)

func TestPushCommandTemplate(t *testing.T) {
	got := pushCommand("/mnt/data/scenario.csv", "/mnt/data/scenario.csv.temp", "/mnt/data/scenario.csv.lockfile", "abc123")
	want := "(flock -x 200; prev='abc123'; " +
		"curr=$(sha256sum /mnt/data/scenario.csv | cut -d' ' -f1); " +
		"if [ \"$prev\" = \"$curr\" ]; then mv -b /mnt/data/scenario.csv.temp /mnt/data/scenario.csv; " +
		"else echo CONFLICT_ERROR 1>&2; fi) " +
		"200>/mnt/data/scenario.csv.lockfile"
	require.Equal(t, want, got)
}

// fakeServer stands in for the remote-shell backend. Run applies the
// compare-and-swap outcome directly instead of shelling out.
type fakeServer struct {
	storage.Backend
	lastCommand string
	canonical   string
	backup      string
	conflict    bool
}

func (f *fakeServer) FullPath(p string) string { return path.Join("/mnt/data", p) }

func (f *fakeServer) Run(ctx context.Context, command string) (string, string, error) {
	f.lastCommand = command
	if f.conflict {
		return "", conflictMarker + "\n", nil
	}
	// mv -b keeps the previous canonical version under a tilde name.
	if ok, _ := f.Backend.Exists(ctx, f.canonical); ok {
		if err := f.Backend.Move(ctx, f.canonical, f.canonical+"~", true); err != nil {
			return "", "", err
		}
	}
	if err := f.Backend.Move(ctx, f.backup, f.canonical, true); err != nil {
		return "", "", err
	}
	return "", "", nil
}

func newSSHForTest(conflict bool) (*SSHDataAccess, *fakeServer) {
	remote := &fakeServer{Backend: memfs.New("ssh_fs"), conflict: conflict}
	store := multi.New()
	store.Add(remote, 3)
	return &SSHDataAccess{
		remote: remote,
		base: base{
			localFS: memfs.New("local_fs"),
			store:   store,
			l:       logger.GetLogger("test"),
			cfg:     Config{ExecuteDir: "tmp", OperationTimeout: time.Minute},
		},
	}, remote
}

func readAll(t *testing.T, b storage.Backend, p string) string {
	t.Helper()
	r, err := b.OpenRead(context.Background(), p)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestSSHPushReplacesCanonicalFile(t *testing.T) {
	d, remote := newSSHForTest(false)
	ctx := context.Background()
	remote.canonical = "scenario.csv"
	remote.backup = "scenario.csv.temp"
	require.NoError(t, storage.WriteAll(ctx, remote, "scenario.csv", strings.NewReader("old")))
	require.NoError(t, storage.WriteAll(ctx, d.localFS, "scenario.csv", strings.NewReader("new")))

	sum, err := remote.Hash(ctx, "scenario.csv")
	require.NoError(t, err)
	require.NoError(t, d.Push(ctx, "scenario.csv", sum, "scenario.csv"))

	require.Equal(t, "new", readAll(t, remote, "scenario.csv"))
	require.Equal(t, "old", readAll(t, remote, "scenario.csv~"))
	ok, err := remote.Exists(ctx, "scenario.csv.temp")
	require.NoError(t, err)
	require.False(t, ok)
	// The local edit was consumed by the transfer.
	ok, err = d.localFS.Exists(ctx, "scenario.csv")
	require.NoError(t, err)
	require.False(t, ok)

	require.Contains(t, remote.lastCommand, "flock -x 200")
	require.Contains(t, remote.lastCommand, "prev='"+sum+"'")
	require.Contains(t, remote.lastCommand, "/mnt/data/scenario.csv.lockfile")
}

func TestSSHPushConflictLeavesCanonicalUntouched(t *testing.T) {
	d, remote := newSSHForTest(true)
	ctx := context.Background()
	require.NoError(t, storage.WriteAll(ctx, remote, "scenario.csv", strings.NewReader("old")))
	require.NoError(t, storage.WriteAll(ctx, d.localFS, "scenario.csv", strings.NewReader("new")))

	err := d.Push(ctx, "scenario.csv", "stale-digest", "scenario.csv")
	require.ErrorIs(t, err, storage.ErrConflict)
	require.Equal(t, "old", readAll(t, remote, "scenario.csv"))

	// The staged copy stays behind and blocks a blind retry.
	require.NoError(t, storage.WriteAll(ctx, d.localFS, "scenario.csv", strings.NewReader("new2")))
	err = d.Push(ctx, "scenario.csv", "stale-digest", "scenario.csv")
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestSSHPushRejectsLeftoverBackup(t *testing.T) {
	d, remote := newSSHForTest(false)
	ctx := context.Background()
	require.NoError(t, storage.WriteAll(ctx, remote, "scenario.csv.temp", strings.NewReader("leftover")))
	require.NoError(t, storage.WriteAll(ctx, d.localFS, "scenario.csv", strings.NewReader("new")))

	err := d.Push(ctx, "scenario.csv", "any", "scenario.csv")
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
	// Nothing was transferred.
	ok, err := d.localFS.Exists(ctx, "scenario.csv")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSSHPushWithoutConnection(t *testing.T) {
	d, _ := newSSHForTest(false)
	d.remote = nil
	err := d.Push(context.Background(), "scenario.csv", "any", "scenario.csv")
	require.ErrorIs(t, err, storage.ErrConnectionUnavailable)
}

func TestLocalPushGatesOnChecksum(t *testing.T) {
	d := NewMemory(nil)
	ctx := context.Background()
	seedStore(t, d, "scenario.csv", "old")
	seedStore(t, d, "scenario.csv.edit", "new")

	// The local variant's gate is exercised through the shared base; build
	// one over the same in-memory store.
	local := &LocalDataAccess{base: d.base}

	err := local.Push(ctx, "scenario.csv.edit", "not-the-digest", "scenario.csv")
	require.ErrorIs(t, err, storage.ErrConflict)

	sum, err := local.Checksum(ctx, "scenario.csv")
	require.NoError(t, err)
	require.NoError(t, local.Push(ctx, "scenario.csv.edit", sum, "scenario.csv"))
	mem, ok := d.store.Backend("in_memory")
	require.True(t, ok)
	require.Equal(t, "new", readAll(t, mem, "scenario.csv"))
}
