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

// Package multi composes several backends into one logical namespace.
// Reads resolve against member backends in descending priority order, so a
// fast shared server transparently shadows slower blob storage. Writes always
// name their target backend explicitly.
package multi

import (
	"context"
	"io"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/powersimdata/scenariofs/pkg/storage"
)

// Store is a priority-ordered composition of backends. The member set is
// fixed once reads begin; there is no dynamic re-registration.
type Store struct {
	entries []entry
}

type entry struct {
	backend  storage.Backend
	priority int
	order    int
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Add registers a backend with the given priority. Higher priorities win;
// ties resolve by registration order.
func (s *Store) Add(b storage.Backend, priority int) {
	s.entries = append(s.entries, entry{backend: b, priority: priority, order: len(s.entries)})
	sort.SliceStable(s.entries, func(i, j int) bool {
		if s.entries[i].priority != s.entries[j].priority {
			return s.entries[i].priority > s.entries[j].priority
		}
		return s.entries[i].order < s.entries[j].order
	})
}

// Names lists registered backend names in resolution order, for diagnostics.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.backend.Name())
	}
	return names
}

// Backend returns the member with the given name.
func (s *Store) Backend(name string) (storage.Backend, bool) {
	for _, e := range s.entries {
		if e.backend.Name() == name {
			return e.backend, true
		}
	}
	return nil, false
}

// Locate probes members from highest to lowest priority and returns the
// first backend reporting the path present.
func (s *Store) Locate(ctx context.Context, path string) (storage.Backend, bool, error) {
	for _, e := range s.entries {
		ok, err := e.backend.Exists(ctx, path)
		if err != nil {
			return nil, false, errors.WithMessagef(err, "probing %s on %s", path, e.backend.Name())
		}
		if ok {
			return e.backend, true, nil
		}
	}
	return nil, false, nil
}

// Exists reports whether any member holds the path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	_, ok, err := s.Locate(ctx, path)
	return ok, err
}

// OpenRead opens the path on the highest-priority backend holding it and
// reports that backend's name.
func (s *Store) OpenRead(ctx context.Context, path string) (io.ReadCloser, string, error) {
	b, ok, err := s.Locate(ctx, path)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", errors.Wrapf(storage.ErrNotFound, "%s not found on any of %v", path, s.Names())
	}
	r, err := b.OpenRead(ctx, path)
	return r, b.Name(), err
}

// Hash returns the digest of the path on the highest-priority backend holding it.
func (s *Store) Hash(ctx context.Context, path string) (string, error) {
	b, ok, err := s.Locate(ctx, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Wrapf(storage.ErrNotFound, "%s not found on any of %v", path, s.Names())
	}
	return b.Hash(ctx, path)
}

// Writable returns the highest-priority writable member.
func (s *Store) Writable() (storage.Backend, error) {
	for _, e := range s.entries {
		if e.backend.Writable() {
			return e.backend, nil
		}
	}
	return nil, errors.Wrapf(storage.ErrNotWritable, "no writable backend among %v", s.Names())
}

// WriteTo streams r into path on the named member.
func (s *Store) WriteTo(ctx context.Context, backendName, path string, r io.Reader) error {
	b, ok := s.Backend(backendName)
	if !ok {
		return errors.Wrapf(storage.ErrNotFound, "backend %s not registered among %v", backendName, s.Names())
	}
	return storage.WriteAll(ctx, b, path, r)
}

// Close closes every member, aggregating failures.
func (s *Store) Close() (err error) {
	for _, e := range s.entries {
		err = multierr.Append(err, e.backend.Close())
	}
	return err
}
