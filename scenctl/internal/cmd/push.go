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

package cmd

import (
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push [file] [checksum] [rename]",
		Short: "Publish a locally edited file as the new canonical version",
		Long: "Publish the local edit at [file] to the canonical path [rename]. " +
			"[checksum] must be the digest captured before editing; the push is " +
			"rejected when the canonical file has changed since.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			da, err := newDataAccess(cmd.Context())
			if err != nil {
				return err
			}
			defer da.Close()
			return da.Push(cmd.Context(), args[0], args[1], args[2])
		},
	}
}
