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

	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/logger"
	"github.com/powersimdata/scenariofs/pkg/storage"
	"github.com/powersimdata/scenariofs/pkg/storage/blob"
	"github.com/powersimdata/scenariofs/pkg/storage/local"
	"github.com/powersimdata/scenariofs/pkg/storage/multi"
)

// LocalDataAccess serves a shared data volume with a read-only profile
// overlay, for installations without a shared server.
type LocalDataAccess struct {
	base
}

var _ DataAccess = (*LocalDataAccess)(nil)

// NewLocal creates a DataAccess over the local cache plus the profile
// container. An unreachable container is logged and skipped.
func NewLocal(ctx context.Context, cfg Config, resolver VersionResolver) (*LocalDataAccess, error) {
	cfg.Sanitize()
	l := logger.GetLogger("dataaccess")

	localFS, err := local.New("local_fs", cfg.LocalDir)
	if err != nil {
		return nil, err
	}

	store := multi.New()
	store.Add(localFS, 3)
	if cfg.ProfileContainer != "" {
		profiles, errBlob := blob.New(ctx, "profile_fs", cfg.ProfileContainer, &cfg.Blob)
		if errBlob != nil {
			l.Warn().Err(errBlob).Str("container", cfg.ProfileContainer).Msg("profile container unavailable")
		} else {
			store.Add(profiles, 2)
		}
	}

	return &LocalDataAccess{base: base{
		localFS:  localFS,
		store:    store,
		versions: resolver,
		l:        l,
		cfg:      cfg,
	}}, nil
}

// Push renames the staged edit over the canonical path on the same volume,
// gated on the canonical file's digest still matching checksum. No remote
// round trip is involved.
func (d *LocalDataAccess) Push(ctx context.Context, fileName, sum, rename string) error {
	current, err := d.Checksum(ctx, rename)
	if err != nil {
		return err
	}
	if current != sum {
		return errors.Wrapf(storage.ErrConflict, "%s changed since the digest was captured", rename)
	}
	writable, err := d.store.Writable()
	if err != nil {
		return err
	}
	return writable.Move(ctx, fileName, rename, true)
}
