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

// Package cmd implements the scenctl sub commands.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/powersimdata/scenariofs/dataaccess"
	"github.com/powersimdata/scenariofs/dataaccess/profile"
	"github.com/powersimdata/scenariofs/pkg/config"
	"github.com/powersimdata/scenariofs/pkg/logger"
	"github.com/powersimdata/scenariofs/pkg/version"
)

type rootOptions struct {
	mode string
	cfg  dataaccess.Config
}

var (
	opts    rootOptions
	logging logger.Logging
)

// NewRoot returns the root command.
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "scenctl",
		Short:             "scenctl manages simulation scenario datasets across local, server and blob storage",
		DisableAutoGenTag: true,
		Version:           version.Build(),
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load("scenctl", cmd.Flags()); err != nil {
				return err
			}
			return logger.Init(logging)
		},
	}

	cmd.PersistentFlags().StringVar(&logging.Env, "logging-env", "prod", "the logging environment")
	cmd.PersistentFlags().StringVar(&logging.Level, "logging-level", "info", "the root level of logging")
	cmd.PersistentFlags().StringVar(&opts.mode, "mode", "ssh", "data access mode (ssh|local|memory)")
	cmd.PersistentFlags().StringVar(&opts.cfg.Server.Host, "server-host", "", "host of the shared data server")
	cmd.PersistentFlags().IntVar(&opts.cfg.Server.Port, "server-port", 22, "port of the shared data server")
	cmd.PersistentFlags().StringVar(&opts.cfg.Server.Username, "server-user", "", "login user on the data server")
	cmd.PersistentFlags().StringVar(&opts.cfg.Server.KeyFile, "server-key-file", "", "private key for the data server login")
	cmd.PersistentFlags().StringVar(&opts.cfg.Server.KnownHostsFile, "known-hosts", "", "known_hosts file for host key verification")
	cmd.PersistentFlags().StringVar(&opts.cfg.Server.Root, "server-root", "", "data root on the server")
	cmd.PersistentFlags().StringVar(&opts.cfg.LocalDir, "local-dir", "", "local cache root (default $HOME/scenariofs)")
	cmd.PersistentFlags().StringVar(&opts.cfg.ExecuteDir, "execute-dir", "", "remote scratch area for scenario runs")
	cmd.PersistentFlags().StringVar(&opts.cfg.ScenarioContainer, "scenario-container", "", "blob URL of published scenario data")
	cmd.PersistentFlags().StringVar(&opts.cfg.ProfileContainer, "profile-container", "", "blob URL of published profiles")
	cmd.PersistentFlags().DurationVar(&opts.cfg.OperationTimeout, "operation-timeout", 0, "deadline for each remote operation")

	cmd.AddCommand(
		newGetCmd(),
		newChecksumCmd(),
		newPushCmd(),
		newCopyCmd(),
		newRemoveCmd(),
		newVersionsCmd(),
		newPruneCmd(),
	)
	return cmd
}

// newDataAccess builds the facade the sub command operates on. The caller
// owns the Close.
func newDataAccess(ctx context.Context) (dataaccess.DataAccess, error) {
	opts.cfg.Sanitize()
	resolver := profile.New(profileListURL(opts.cfg.ProfileContainer), opts.cfg.LocalDir)
	switch opts.mode {
	case "ssh":
		return dataaccess.NewSSH(ctx, opts.cfg, resolver)
	case "local":
		return dataaccess.NewLocal(ctx, opts.cfg, resolver)
	case "memory":
		return dataaccess.NewMemory(resolver), nil
	default:
		return nil, errors.Errorf("unknown mode %q", opts.mode)
	}
}

// profileListURL turns the container URL into its anonymous HTTP listing
// endpoint. azure://account/container becomes the public blob endpoint;
// http(s) URLs pass through.
func profileListURL(container string) string {
	const scheme = "azure://"
	if !strings.HasPrefix(container, scheme) {
		return container
	}
	parts := strings.SplitN(strings.TrimPrefix(container, scheme), "/", 2)
	if len(parts) != 2 {
		return container
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s", parts[0], parts[1])
}
