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

// Package codec serializes dataset values. The format is dispatched on the
// path's extension: .pkl holds an opaque binary object, .csv a table, .mat a
// named-matrix container.
package codec

import (
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/powersimdata/scenariofs/pkg/storage"
)

// Codec serializes and deserializes one dataset format.
type Codec interface {
	// Encode writes v to w.
	Encode(w io.Writer, v interface{}) error
	// Decode reads one value from r.
	Decode(r io.Reader) (interface{}, error)
}

// ForPath picks the codec for p by extension. Fails with ErrUnknownFormat
// for anything unrecognized.
func ForPath(p string) (Codec, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(p)), "."))
	switch ext {
	case "pkl":
		return objectCodec{}, nil
	case "csv":
		return tableCodec{}, nil
	case "mat":
		return matrixCodec{}, nil
	default:
		return nil, errors.Wrapf(storage.ErrUnknownFormat, "%q (from %s)", ext, p)
	}
}
