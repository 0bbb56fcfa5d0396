/*
Copyright 2026 The Diskcheck Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// The diskcheck command dispatches fsck.<type> helpers over the
// filesystems of the system mount table, checking independent disks in
// parallel. It exits with the bitwise OR of the helpers' exit codes,
// following the fsck(8) convention.
package main

import (
	"fmt"
	"log"

	"diskcheck.org/pkg/buildinfo"
	"diskcheck.org/pkg/cmdmain"

	"go4.org/legal"
)

func init() {
	legal.RegisterLicense(`diskcheck is licensed under the Apache License, Version 2.0:
http://www.apache.org/licenses/LICENSE-2.0`)
}

func init() {
	// So we can simply use log.Printf and log.Fatalf.
	// For logging that depends on verbosity (cmdmain.FlagVerbose),
	// use cmdmain.Logf.
	log.SetOutput(cmdmain.Stderr)
	log.SetFlags(0)
	log.SetPrefix("diskcheck: ")
}

func main() {
	cmdmain.Main()
}

// printTitle writes the one-line banner interactive users expect,
// unless -T suppressed it.
func printTitle(pf *policyFlags) {
	if pf.noTitle {
		return
	}
	fmt.Fprintf(cmdmain.Stdout, "diskcheck %s\n", buildinfo.Summary())
}
