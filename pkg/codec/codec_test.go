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

package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/powersimdata/scenariofs/pkg/storage"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"object", "scenario_1/grid.pkl", false},
		{"table", "raw/usa_tamu/demand_v6.csv", false},
		{"matrix", "scenario_1/input.mat", false},
		{"case-insensitive", "SCENARIO.PKL", false},
		{"unknown", "notes.txt", true},
		{"no extension", "README", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ForPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, storage.ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestObjectRoundTrip(t *testing.T) {
	c, err := ForPath("grid.pkl")
	require.NoError(t, err)

	original := map[string]interface{}{
		"branch":  []float64{1.5, 2.25, 99},
		"ct":      map[string]float64{"solar": 2.0},
		"history": []interface{}{"scaled", "pruned"},
	}
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, original))

	decoded, err := c.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestTableRoundTrip(t *testing.T) {
	c, err := ForPath("demand.csv")
	require.NoError(t, err)

	original := [][]string{
		{"hour", "zone", "mw"},
		{"0", "bay_area", "1204.5"},
		{"1", "bay_area", "1174.25"},
	}
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, original))

	decoded, err := c.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, original, decoded)

	require.Error(t, c.Encode(&buf, "not a table"))
}

func TestMatrixRoundTrip(t *testing.T) {
	c, err := ForPath("input.mat")
	require.NoError(t, err)

	original := MatrixSet{
		"mpc": {Rows: 2, Cols: 3, Data: []float64{1, 2, 3, 4, 5, 6}},
		"gen": {Rows: 1, Cols: 2, Data: []float64{-1.5, 0.25}},
	}
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, original))

	decoded, err := c.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestMatrixShapeValidation(t *testing.T) {
	c, err := ForPath("bad.mat")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = c.Encode(&buf, MatrixSet{"m": {Rows: 2, Cols: 2, Data: []float64{1}}})
	require.Error(t, err)
}

func TestMatrixRejectsForeignBytes(t *testing.T) {
	c, err := ForPath("x.mat")
	require.NoError(t, err)
	_, err = c.Decode(bytes.NewReader([]byte("definitely not a container")))
	require.Error(t, err)
}
