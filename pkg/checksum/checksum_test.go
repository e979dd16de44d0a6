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

package checksum

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestComputeMatchesSum(t *testing.T) {
	payload := []byte("demand_v6 hourly profile")
	fromReader, err := Compute(bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, Sum(payload), fromReader)
}

func TestVerify(t *testing.T) {
	payload := []byte("grid topology")
	require.NoError(t, Verify(bytes.NewReader(payload), Sum(payload)))

	err := Verify(bytes.NewReader(payload), Sum([]byte("other")))
	require.ErrorIs(t, err, ErrMismatch)
}

func TestComputeAndWrap(t *testing.T) {
	payload := "scenario_87/input.mat"
	r, digest := ComputeAndWrap(strings.NewReader(payload))
	_, err := io.Copy(io.Discard, r)
	require.NoError(t, err)
	require.Equal(t, Sum([]byte(payload)), digest())
}

func TestWrapDetectsCorruption(t *testing.T) {
	payload := []byte("profile bytes")
	rc := Wrap(io.NopCloser(bytes.NewReader(payload)), Sum([]byte("tampered")))
	_, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.True(t, errors.Is(rc.Close(), ErrMismatch))

	rc = Wrap(io.NopCloser(bytes.NewReader(payload)), Sum(payload))
	_, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
}
