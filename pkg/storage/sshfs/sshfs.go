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

// Package sshfs provides a backend for files on a shared server reachable
// over an SSH login session. File operations go through SFTP; the push
// protocol additionally executes shell commands on the host.
package sshfs

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"go.uber.org/multierr"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/powersimdata/scenariofs/pkg/checksum"
	"github.com/powersimdata/scenariofs/pkg/storage"
)

var (
	_ storage.Backend = (*backend)(nil)
	_ storage.Runner  = (*backend)(nil)
)

// Config locates and authenticates the shared server session.
type Config struct {
	// Host is the server address, without port.
	Host string
	// Port is the SSH port. Defaults to 22.
	Port int
	// Username is the login user.
	Username string
	// KeyFile is a path to a private key. Agent-less key auth only.
	KeyFile string
	// Password is used when KeyFile is empty.
	Password string
	// KnownHostsFile verifies the host key when set; otherwise the key is
	// accepted blindly.
	KnownHostsFile string
	// Root is the directory on the server all paths resolve under.
	Root string
	// DialTimeout bounds connection establishment. Defaults to 10s.
	DialTimeout time.Duration
}

type backend struct {
	ssh  *ssh.Client
	sftp *sftp.Client
	name string
	root string
}

// New dials the server and opens an SFTP session. Failure to reach the
// server surfaces as ErrConnectionUnavailable so the caller can degrade
// instead of aborting.
func New(_ context.Context, name string, cfg Config) (storage.Backend, error) {
	clientCfg, err := buildClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", port))
	sshClient, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		return nil, errors.Wrapf(storage.ErrConnectionUnavailable, "dial %s: %v", addr, err)
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		closeErr := sshClient.Close()
		return nil, errors.Wrapf(storage.ErrConnectionUnavailable, "open sftp on %s: %v", addr, multierr.Append(err, closeErr))
	}
	return &backend{name: name, root: cfg.Root, ssh: sshClient, sftp: sftpClient}, nil
}

func buildClientConfig(cfg Config) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, errors.WithMessagef(err, "read key file %s", cfg.KeyFile)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, errors.WithMessagef(err, "parse key file %s", cfg.KeyFile)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, errors.WithMessagef(err, "load known hosts %s", cfg.KnownHostsFile)
		}
		hostKeyCallback = cb
	}
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

func (b *backend) Name() string { return b.name }

func (b *backend) Writable() bool { return true }

// FullPath resolves a logical path against the server root. The push
// protocol embeds these in its remote command.
func (b *backend) FullPath(p string) string {
	return path.Join(b.root, p)
}

func (b *backend) Exists(_ context.Context, p string) (bool, error) {
	_, err := b.sftp.Stat(b.FullPath(p))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (b *backend) OpenRead(_ context.Context, p string) (io.ReadCloser, error) {
	f, err := b.sftp.Open(b.FullPath(p))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(storage.ErrNotFound, p)
	}
	return f, err
}

func (b *backend) OpenWrite(_ context.Context, p string) (io.WriteCloser, error) {
	fullPath := b.FullPath(p)
	if err := b.sftp.MkdirAll(path.Dir(fullPath)); err != nil {
		return nil, err
	}
	return b.sftp.Create(fullPath)
}

// Hash asks the server itself for the digest, avoiding a transfer of the
// whole file over the wire.
func (b *backend) Hash(ctx context.Context, p string) (string, error) {
	ok, err := b.Exists(ctx, p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Wrap(storage.ErrNotFound, p)
	}
	stdout, stderr, err := b.Run(ctx, fmt.Sprintf("%s %s", checksum.RemoteCommand, b.FullPath(p)))
	if err != nil {
		return "", err
	}
	if stderr != "" {
		return "", errors.Errorf("remote digest of %s failed: %s", p, stderr)
	}
	fields := strings.Fields(stdout)
	if len(fields) == 0 {
		return "", errors.Errorf("remote digest of %s produced no output", p)
	}
	return fields[0], nil
}

func (b *backend) Move(ctx context.Context, src, dst string, overwrite bool) error {
	if !overwrite {
		ok, err := b.Exists(ctx, dst)
		if err != nil {
			return err
		}
		if ok {
			return errors.Wrap(storage.ErrAlreadyExists, dst)
		}
	}
	dstPath := b.FullPath(dst)
	if err := b.sftp.MkdirAll(path.Dir(dstPath)); err != nil {
		return err
	}
	err := b.sftp.PosixRename(b.FullPath(src), dstPath)
	if errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(storage.ErrNotFound, src)
	}
	return err
}

func (b *backend) IsDir(_ context.Context, p string) (bool, error) {
	info, err := b.sftp.Stat(b.FullPath(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (b *backend) DeleteMatching(_ context.Context, pattern string) error {
	matches, err := b.sftp.Glob(b.FullPath(pattern))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := b.sftp.Remove(m); err != nil {
			return err
		}
	}
	return nil
}

func (b *backend) Close() error {
	return multierr.Append(b.sftp.Close(), b.ssh.Close())
}
