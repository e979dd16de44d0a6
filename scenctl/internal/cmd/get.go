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
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var toStdout bool
	cmd := &cobra.Command{
		Use:   "get [path]",
		Short: "Fetch a file into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			da, err := newDataAccess(cmd.Context())
			if err != nil {
				return err
			}
			defer da.Close()
			return da.Get(cmd.Context(), args[0], func(r io.Reader, localPath string) error {
				if toStdout {
					_, err := io.Copy(cmd.OutOrStdout(), r)
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), localPath)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the file content to stdout instead of printing its cached location")
	return cmd
}
