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

package storage

import "github.com/pkg/errors"

// Errors returned by backends and the data access layer. Backends resolve
// provider-specific failures into these before they reach a caller; raw
// transport errors never cross the facade boundary.
var (
	// ErrNotFound indicates the path is absent from every consulted backend.
	ErrNotFound = errors.New("path not found")

	// ErrAlreadyExists indicates a create-only write hit an occupied path,
	// or a stale push backup is still in place.
	ErrAlreadyExists = errors.New("path already exists")

	// ErrNotWritable indicates the target backend is read-only.
	ErrNotWritable = errors.New("backend is not writable")

	// ErrUnknownFormat indicates the path's extension maps to no serializer.
	ErrUnknownFormat = errors.New("unknown serialization format")

	// ErrConflict indicates a push lost the checksum race: the canonical
	// remote copy changed after the caller captured its digest.
	ErrConflict = errors.New("push conflict detected")

	// ErrConnectionUnavailable indicates a remote backend could not be
	// reached at construction time. Callers degrade instead of aborting.
	ErrConnectionUnavailable = errors.New("remote backend unreachable")

	// ErrTimeout indicates a remote operation exceeded its deadline.
	// The operation may be retried with a fresh deadline.
	ErrTimeout = errors.New("operation deadline exceeded")
)
