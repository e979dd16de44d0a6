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

package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Logging
		wantErr bool
	}{
		{"prod default", Logging{Env: "prod", Level: "info"}, false},
		{"dev console", Logging{Env: "dev", Level: "debug"}, false},
		{"per-module levels", Logging{Env: "prod", Level: "info", Modules: []string{"storage"}, Levels: []string{"warn"}}, false},
		{"bad level", Logging{Env: "prod", Level: "chatty"}, true},
		{"mismatched modules", Logging{Env: "prod", Level: "info", Modules: []string{"storage"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNamedInheritsModuleLevel(t *testing.T) {
	require.NoError(t, Init(Logging{
		Env:     "prod",
		Level:   "info",
		Modules: []string{"storage"},
		Levels:  []string{"warn"},
	}))
	l := GetLogger().Named("storage")
	require.Equal(t, "STORAGE", l.Module())
	require.Equal(t, zerolog.WarnLevel, l.GetLevel())

	sub := l.Named("local")
	require.Equal(t, "STORAGE.LOCAL", sub.Module())
}
