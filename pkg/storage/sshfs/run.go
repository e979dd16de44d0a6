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

package sshfs

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/powersimdata/scenariofs/pkg/storage"
)

// Run executes command on the server and blocks until it finishes or ctx
// expires. A deadline expiry surfaces as ErrTimeout; the session is torn
// down so nothing keeps running under a lock past its scope.
func (b *backend) Run(ctx context.Context, command string) (string, string, error) {
	session, err := b.ssh.NewSession()
	if err != nil {
		return "", "", err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.String(), stderr.String(), errors.Wrap(storage.ErrTimeout, command)
		}
		return stdout.String(), stderr.String(), ctx.Err()
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		// A non-zero exit is reported through stderr; the caller decides
		// what it means.
		return stdout.String(), stderr.String(), nil
	}
	return stdout.String(), stderr.String(), err
}

// Process is a handle to a command launched without waiting. The caller
// owns waiting on it.
type Process struct {
	session *ssh.Session
	command string
}

// Start launches command on the server and returns immediately.
func (b *backend) Start(command string) (*Process, error) {
	session, err := b.ssh.NewSession()
	if err != nil {
		return nil, err
	}
	if err := session.Start(command); err != nil {
		_ = session.Close()
		return nil, errors.WithMessagef(err, "start %s", command)
	}
	return &Process{session: session, command: command}, nil
}

// Command returns the launched command line.
func (p *Process) Command() string { return p.command }

// Wait blocks until the command finishes and releases the session.
func (p *Process) Wait() error {
	defer p.session.Close()
	return p.session.Wait()
}
