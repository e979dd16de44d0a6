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
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Matrix is one dense row-major float64 matrix.
type Matrix struct {
	Data []float64
	Rows int
	Cols int
}

// MatrixSet is the value type of a .mat container: matrices keyed by name.
type MatrixSet map[string]Matrix

// magic identifies the container. There is no version field beyond it.
var matMagic = [4]byte{'S', 'M', 'A', 'T'}

// matrixCodec stores a MatrixSet in a flat binary layout: magic, entry
// count, then per entry a length-prefixed name, dimensions and the
// little-endian row-major payload. Entries are written in name order so
// encoding is deterministic.
type matrixCodec struct{}

func (matrixCodec) Encode(w io.Writer, v interface{}) error {
	set, ok := v.(MatrixSet)
	if !ok {
		return errors.Errorf("mat payload must be codec.MatrixSet, got %T", v)
	}
	if _, err := w.Write(matMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(set))); err != nil {
		return err
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := set[name]
		if len(m.Data) != m.Rows*m.Cols {
			return errors.Errorf("matrix %s: %d values for %dx%d shape", name, len(m.Data), m.Rows, m.Cols)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(name))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(m.Rows)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(m.Cols)); err != nil {
			return err
		}
		for _, f := range m.Data {
			if err := binary.Write(w, binary.LittleEndian, math.Float64bits(f)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (matrixCodec) Decode(r io.Reader) (interface{}, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != matMagic {
		return nil, errors.Errorf("not a matrix container (magic %q)", magic)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	set := make(MatrixSet, count)
	for i := uint32(0); i < count; i++ {
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, err
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, err
		}
		var rows, cols uint32
		if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
			return nil, err
		}
		data := make([]float64, int(rows)*int(cols))
		for j := range data {
			var bits uint64
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, err
			}
			data[j] = math.Float64frombits(bits)
		}
		set[string(name)] = Matrix{Rows: int(rows), Cols: int(cols), Data: data}
	}
	return set, nil
}
