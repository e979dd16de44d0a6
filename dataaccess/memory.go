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

	"github.com/powersimdata/scenariofs/pkg/logger"
	"github.com/powersimdata/scenariofs/pkg/storage/memfs"
	"github.com/powersimdata/scenariofs/pkg/storage/multi"
)

// MemoryDataAccess keeps everything in process memory. It exists for tests
// and dry runs; every operation behaves like the real variants minus the
// network.
type MemoryDataAccess struct {
	base
}

var _ DataAccess = (*MemoryDataAccess)(nil)

// NewMemory creates a fully in-memory DataAccess.
func NewMemory(resolver VersionResolver) *MemoryDataAccess {
	localFS := memfs.New("local_fs")
	store := multi.New()
	store.Add(memfs.New("in_memory"), 3)

	cfg := Config{ExecuteDir: "tmp", OperationTimeout: 0}
	cfg.Sanitize()
	return &MemoryDataAccess{base: base{
		localFS:  localFS,
		store:    store,
		versions: resolver,
		l:        logger.GetLogger("dataaccess"),
		cfg:      cfg,
	}}
}

// Push moves the edit from the cache to the store at its canonical name.
// A single process cannot race itself, so the checksum gate is skipped.
func (d *MemoryDataAccess) Push(ctx context.Context, fileName, _, rename string) error {
	writable, err := d.store.Writable()
	if err != nil {
		return err
	}
	return moveAcross(ctx, d.localFS, fileName, writable, rename)
}
