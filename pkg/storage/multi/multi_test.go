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

package multi

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/powersimdata/scenariofs/pkg/storage"
	"github.com/powersimdata/scenariofs/pkg/storage/memfs"
)

func write(t *testing.T, b storage.Backend, path, content string) {
	t.Helper()
	require.NoError(t, storage.WriteAll(context.Background(), b, path, strings.NewReader(content)))
}

func TestLocateFollowsPriority(t *testing.T) {
	high := memfs.New("high")
	low := memfs.New("low")
	write(t, high, "shared.csv", "from-high")
	write(t, low, "shared.csv", "from-low")
	write(t, low, "only-low.csv", "x")

	s := New()
	s.Add(low, 1)
	s.Add(high, 3)
	require.Equal(t, []string{"high", "low"}, s.Names())

	r, name, err := s.OpenRead(context.Background(), "shared.csv")
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, "high", name)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "from-high", string(data))

	b, ok, err := s.Locate(context.Background(), "only-low.csv")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "low", b.Name())
}

func TestTiesResolveByRegistrationOrder(t *testing.T) {
	first := memfs.New("first")
	second := memfs.New("second")
	write(t, first, "f.csv", "1")
	write(t, second, "f.csv", "2")

	s := New()
	s.Add(first, 2)
	s.Add(second, 2)

	_, name, err := s.OpenRead(context.Background(), "f.csv")
	require.NoError(t, err)
	require.Equal(t, "first", name)
}

func TestOpenReadNotFoundNamesMembers(t *testing.T) {
	s := New()
	s.Add(memfs.New("a"), 2)
	s.Add(memfs.New("b"), 1)

	_, _, err := s.OpenRead(context.Background(), "missing.csv")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Contains(t, err.Error(), "a")
	require.Contains(t, err.Error(), "b")
}

type readOnlyBackend struct {
	storage.Backend
}

func (readOnlyBackend) Writable() bool { return false }

func TestWritableSkipsReadOnlyMembers(t *testing.T) {
	s := New()
	s.Add(readOnlyBackend{memfs.New("ro")}, 3)
	rw := memfs.New("rw")
	s.Add(rw, 1)

	b, err := s.Writable()
	require.NoError(t, err)
	require.Equal(t, "rw", b.Name())
}

func TestWritableFailsWhenAllReadOnly(t *testing.T) {
	s := New()
	s.Add(readOnlyBackend{memfs.New("ro")}, 1)
	_, err := s.Writable()
	require.ErrorIs(t, err, storage.ErrNotWritable)
}

func TestWriteToNamedBackend(t *testing.T) {
	a := memfs.New("a")
	b := memfs.New("b")
	s := New()
	s.Add(a, 2)
	s.Add(b, 1)

	require.NoError(t, s.WriteTo(context.Background(), "b", "f.csv", strings.NewReader("x")))
	ok, err := b.Exists(context.Background(), "f.csv")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = a.Exists(context.Background(), "f.csv")
	require.NoError(t, err)
	require.False(t, ok)

	require.ErrorIs(t, s.WriteTo(context.Background(), "c", "f.csv", strings.NewReader("x")), storage.ErrNotFound)
}
