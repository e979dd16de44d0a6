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
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/powersimdata/scenariofs/pkg/logger"
	"github.com/powersimdata/scenariofs/pkg/schedule"
)

func newPruneCmd() *cobra.Command {
	var scheduleExpr string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stale staging directories and push leftovers from the local cache",
		RunE: func(_ *cobra.Command, _ []string) error {
			opts.cfg.Sanitize()
			if scheduleExpr == "" {
				return pruneCache(opts.cfg.LocalDir, logger.GetLogger("prune"))
			}
			schedLogger := logger.GetLogger("prune-scheduler")
			schedLogger.Info().Msgf("prune of %s will run with schedule: %s", opts.cfg.LocalDir, scheduleExpr)
			sch := schedule.NewScheduler(schedLogger, schedule.NewClock())
			err := sch.Register("prune", cron.Descriptor, scheduleExpr, func(_ time.Time, l *logger.Logger) bool {
				if err := pruneCache(opts.cfg.LocalDir, l); err != nil {
					l.Error().Err(err).Msg("prune failed")
				}
				return true
			})
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			schedLogger.Info().Msg("prune scheduler started, press Ctrl+C to exit")
			<-sigChan
			schedLogger.Info().Msg("shutting down prune scheduler...")
			sch.Close()
			return nil
		},
	}
	cmd.Flags().StringVar(
		&scheduleExpr,
		"schedule",
		"",
		"Schedule expression for periodic pruning. Options: @yearly, @monthly, @weekly, @daily, @hourly or @every <duration>",
	)
	return cmd
}

// pruneCache removes interrupted transfers: the staging area and any stale
// push backups left in the cache root.
func pruneCache(root string, l *logger.Logger) error {
	var err error
	staging := filepath.Join(root, ".staging")
	if _, statErr := os.Stat(staging); statErr == nil {
		l.Info().Str("dir", staging).Msg("removing staging area")
		multierr.AppendInto(&err, os.RemoveAll(staging))
	}
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".temp") {
			return nil
		}
		l.Info().Str("file", p).Msg("removing push leftover")
		return os.Remove(p)
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		multierr.AppendInto(&err, walkErr)
	}
	return err
}
