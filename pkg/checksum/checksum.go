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

// Package checksum computes and verifies content hashes.
// SHA-256 is the only algorithm: the digest captured by a client and the
// digest recomputed on the server during a push must come from the same
// function, otherwise a conflict can never be detected.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"

	"github.com/pkg/errors"
)

// Algorithm names the digest used across the whole data access layer.
const Algorithm = "sha256"

// RemoteCommand is the program expected on remote shell hosts to produce
// the same digest as Sum.
const RemoteCommand = "sha256sum"

// ErrMismatch indicates the computed digest differs from the expected one.
var ErrMismatch = errors.New("checksum mismatch")

// Sum returns the hex digest of b.
func Sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Compute consumes r and returns its hex digest.
func Compute(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify consumes r and fails with ErrMismatch if its digest differs from expected.
func Verify(r io.Reader, expected string) error {
	actual, err := Compute(r)
	if err != nil {
		return err
	}
	if actual != expected {
		return errors.Wrapf(ErrMismatch, "expected %s, got %s", expected, actual)
	}
	return nil
}

// ComputeAndWrap returns a reader that hashes the bytes flowing through it.
// The returned function yields the digest once the reader has been fully consumed.
func ComputeAndWrap(r io.Reader) (io.Reader, func() string) {
	h := sha256.New()
	return io.TeeReader(r, h), func() string {
		return hex.EncodeToString(h.Sum(nil))
	}
}

// Wrap returns a ReadCloser that transparently hashes the stream and
// compares it with expected on Close. A mismatch surfaces as ErrMismatch.
func Wrap(rc io.ReadCloser, expected string) io.ReadCloser {
	h := sha256.New()
	return &verifyingReadCloser{
		Reader:   io.TeeReader(rc, h),
		closer:   rc,
		hasher:   h,
		expected: expected,
	}
}

type verifyingReadCloser struct {
	io.Reader
	closer   io.Closer
	hasher   hash.Hash
	expected string
}

func (v *verifyingReadCloser) Close() error {
	if err := v.closer.Close(); err != nil {
		return err
	}
	actual := hex.EncodeToString(v.hasher.Sum(nil))
	if actual != v.expected {
		return errors.Wrapf(ErrMismatch, "expected %s, got %s", v.expected, actual)
	}
	return nil
}
