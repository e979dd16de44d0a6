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

package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/powersimdata/scenariofs/pkg/logger"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	s := NewScheduler(logger.GetLogger("test"), NewMockClock())
	defer s.Close()

	noop := func(time.Time, *logger.Logger) bool { return true }
	require.NoError(t, s.Register("prune", cron.Descriptor, "@every 1h", noop))
	require.ErrorIs(t, s.Register("prune", cron.Descriptor, "@every 1h", noop), ErrTaskDuplicated)
}

func TestRegisterRejectsBadExpression(t *testing.T) {
	s := NewScheduler(logger.GetLogger("test"), NewMockClock())
	defer s.Close()

	err := s.Register("prune", cron.Descriptor, "@sometimes", func(time.Time, *logger.Logger) bool { return true })
	require.Error(t, err)
}

func TestClosedSchedulerRejectsRegistration(t *testing.T) {
	s := NewScheduler(logger.GetLogger("test"), NewMockClock())
	s.Close()
	require.True(t, s.Closed())

	err := s.Register("prune", cron.Descriptor, "@every 1h", func(time.Time, *logger.Logger) bool { return true })
	require.ErrorIs(t, err, ErrSchedulerClosed)
}

func TestTaskFiresOnSchedule(t *testing.T) {
	mc := NewMockClock()
	s := NewScheduler(logger.GetLogger("test"), mc)
	defer s.Close()

	var fired int32
	require.NoError(t, s.Register("prune", cron.Descriptor, "@every 1m", func(time.Time, *logger.Logger) bool {
		atomic.AddInt32(&fired, 1)
		return true
	}))

	// Give the task goroutine a chance to arm its timer before advancing.
	require.Eventually(t, func() bool {
		mc.Add(time.Minute)
		return atomic.LoadInt32(&fired) > 0
	}, time.Second, 10*time.Millisecond)
}
