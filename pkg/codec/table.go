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
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// tableCodec stores a table as CSV. The value is a [][]string of records,
// first record being the header by convention.
type tableCodec struct{}

func (tableCodec) Encode(w io.Writer, v interface{}) error {
	records, ok := v.([][]string)
	if !ok {
		return errors.Errorf("csv payload must be [][]string, got %T", v)
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (tableCodec) Decode(r io.Reader) (interface{}, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}
