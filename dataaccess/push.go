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

package dataaccess

import (
	"fmt"
	"strings"

	"github.com/powersimdata/scenariofs/pkg/checksum"
)

// conflictMarker is what the remote command prints on its error channel
// when the compare-and-swap loses the race.
const conflictMarker = "CONFLICT_ERROR"

// backupSuffix marks the staged copy of a push on the remote store. A
// leftover backup from a failed push must be cleaned up before retrying.
const backupSuffix = ".temp"

// lockSuffix scopes the advisory lock to the path being pushed, so pushes
// to unrelated paths never contend.
const lockSuffix = ".lockfile"

// pushCommand renders the remote-side compare-and-swap. Everything runs
// under an exclusive flock on the lockfile: the server recomputes the
// canonical file's digest, and only if it still matches the caller-captured
// one does the staged copy replace it. mv -b retains the previous canonical
// version under a backup name. The digest program must match the one used
// by Checksum; mixing algorithms would turn every push into a conflict that
// can never be detected.
func pushCommand(original, updated, lockfile, sum string) string {
	script := []string{
		"(flock -x 200;",
		fmt.Sprintf("prev='%s';", sum),
		fmt.Sprintf("curr=$(%s %s | cut -d' ' -f1);", checksum.RemoteCommand, original),
		fmt.Sprintf("if [ \"$prev\" = \"$curr\" ]; then mv -b %s %s;", updated, original),
		fmt.Sprintf("else echo %s 1>&2; fi)", conflictMarker),
		fmt.Sprintf("200>%s", lockfile),
	}
	return strings.Join(script, " ")
}
