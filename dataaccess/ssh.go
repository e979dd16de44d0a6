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
	"strings"

	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/logger"
	"github.com/powersimdata/scenariofs/pkg/storage"
	"github.com/powersimdata/scenariofs/pkg/storage/blob"
	"github.com/powersimdata/scenariofs/pkg/storage/local"
	"github.com/powersimdata/scenariofs/pkg/storage/multi"
	"github.com/powersimdata/scenariofs/pkg/storage/sshfs"
)

// remotePather resolves a logical path to its absolute location on the
// remote host, for embedding in the push command.
type remotePather interface {
	FullPath(p string) string
}

// starter launches fire-and-forget commands on the remote host.
type starter interface {
	Start(command string) (*sshfs.Process, error)
}

// SSHDataAccess serves a remote data store reached over a login session,
// shadowing the blob containers. If the server is unreachable at
// construction it degrades to container-only reads.
type SSHDataAccess struct {
	remote storage.Backend
	base
}

var _ DataAccess = (*SSHDataAccess)(nil)

// NewSSH creates a DataAccess against the shared server and the published
// containers. A failed server connection is logged, not fatal.
func NewSSH(ctx context.Context, cfg Config, resolver VersionResolver) (*SSHDataAccess, error) {
	cfg.Sanitize()
	l := logger.GetLogger("dataaccess")

	localFS, err := local.New("local_fs", cfg.LocalDir)
	if err != nil {
		return nil, err
	}

	store := multi.New()
	var remote storage.Backend
	if cfg.Server.Host != "" {
		remote, err = sshfs.New(ctx, "ssh_fs", cfg.Server)
		switch {
		case errors.Is(err, storage.ErrConnectionUnavailable):
			l.Warn().Err(err).Str("host", cfg.Server.Host).Msg("could not connect to server, operating in degraded mode")
			remote = nil
		case err != nil:
			return nil, err
		default:
			store.Add(remote, 3)
		}
	}
	for _, container := range []struct {
		name     string
		dest     string
		priority int
	}{
		{"profile_fs", cfg.ProfileContainer, 2},
		{"scenario_fs", cfg.ScenarioContainer, 1},
	} {
		if container.dest == "" {
			continue
		}
		b, errBlob := blob.New(ctx, container.name, container.dest, &cfg.Blob)
		if errBlob != nil {
			l.Warn().Err(errBlob).Str("container", container.dest).Msg("container unavailable")
			continue
		}
		store.Add(b, container.priority)
	}

	return &SSHDataAccess{
		remote: remote,
		base: base{
			localFS:  localFS,
			store:    store,
			versions: resolver,
			l:        l,
			cfg:      cfg,
		},
	}, nil
}

// Push publishes the local edit at fileName as the canonical file at
// rename. The edit is staged next to the canonical copy first, then the
// server runs the lock-protected compare-and-swap. Any output on the error
// channel means the push lost; the caller must re-fetch, re-apply and retry
// with a fresh checksum.
func (d *SSHDataAccess) Push(ctx context.Context, fileName, sum, rename string) error {
	if d.remote == nil {
		return errors.Wrap(storage.ErrConnectionUnavailable, "push requires the server connection")
	}
	backup := rename + backupSuffix
	if err := d.checkAbsent(ctx, backup); err != nil {
		return err
	}

	d.l.Info().Str("file", rename).Msg("transferring to server")
	if err := moveAcross(ctx, d.localFS, fileName, d.remote, backup); err != nil {
		return err
	}

	pather, ok := d.remote.(remotePather)
	if !ok {
		return errors.Errorf("backend %s cannot resolve remote paths", d.remote.Name())
	}
	runner, ok := d.remote.(storage.Runner)
	if !ok {
		return errors.Errorf("backend %s cannot run remote commands", d.remote.Name())
	}

	command := pushCommand(
		pather.FullPath(rename),
		pather.FullPath(backup),
		pather.FullPath(rename+lockSuffix),
		sum,
	)

	runCtx, cancel := context.WithTimeout(ctx, d.cfg.OperationTimeout)
	defer cancel()
	_, stderr, err := runner.Run(runCtx, command)
	if err != nil {
		return err
	}
	if strings.TrimSpace(stderr) != "" {
		for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
			d.l.Error().Str("stderr", line).Msg("push failed")
		}
		return errors.Wrapf(storage.ErrConflict, "failed to push %s - most likely a conflict was detected", rename)
	}
	return nil
}

// ExecuteCommandAsync launches a command on the server without waiting for
// completion. The caller owns the returned process handle.
func (d *SSHDataAccess) ExecuteCommandAsync(command string) (*sshfs.Process, error) {
	if d.remote == nil {
		return nil, errors.Wrap(storage.ErrConnectionUnavailable, "no server connection")
	}
	s, ok := d.remote.(starter)
	if !ok {
		return nil, errors.Errorf("backend %s cannot run remote commands", d.remote.Name())
	}
	return s.Start(command)
}
