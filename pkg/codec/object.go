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
	"encoding/gob"
	"io"
)

func init() {
	// Concrete types that may travel inside a .pkl value. Callers holding
	// their own types register them the usual gob way.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register(map[string]float64{})
	gob.Register([]float64{})
	gob.Register([][]string{})
}

// objectCodec stores an opaque value via gob. The on-disk bytes are only
// meaningful to this layer, matching the role of a binary object dump.
type objectCodec struct{}

func (objectCodec) Encode(w io.Writer, v interface{}) error {
	return gob.NewEncoder(w).Encode(&v)
}

func (objectCodec) Decode(r io.Reader) (interface{}, error) {
	var v interface{}
	if err := gob.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
