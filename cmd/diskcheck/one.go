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

package main

import (
	"flag"
	"fmt"

	"diskcheck.org/pkg/check"
	"diskcheck.org/pkg/cmdmain"
	"diskcheck.org/pkg/fstab"
	"diskcheck.org/pkg/osutil"
)

type oneCmd struct {
	pf *policyFlags
}

func init() {
	cmdmain.RegisterCommand("one", func(flags *flag.FlagSet) cmdmain.CommandRunner {
		return &oneCmd{pf: addPolicyFlags(flags)}
	})
}

func (c *oneCmd) Describe() string {
	return "Check only the named devices or mount points."
}

func (c *oneCmd) Usage() {
	fmt.Fprintf(cmdmain.Stderr, "Usage: diskcheck [globalopts] one [opts] <device-or-mountpoint>...\n")
}

func (c *oneCmd) Examples() []string {
	return []string{
		"/dev/sda1",
		"-y / /home",
	}
}

func (c *oneCmd) RunCommand(args []string) error {
	if len(args) == 0 {
		return cmdmain.ErrUsage
	}
	cfg, err := c.pf.config()
	if err != nil {
		return err
	}
	// A lone filesystem gets an interactive helper, as fsck has
	// always done.
	cfg.Interactive = len(args) == 1
	printTitle(c.pf)

	// The mount table is still consulted, so named mount points and
	// declared types keep working; its absence only matters in "all"
	// mode.
	path := c.pf.fstabPath
	if path == "" {
		path = osutil.MountTablePath()
	}
	entries, _ := fstab.Load(path, nil)

	checker := check.New(cfg, entries)
	checker.HandleSignals()
	status := checker.CheckDevices(args)
	if status != check.ExitOK {
		return cmdmain.StatusError{Status: int(status)}
	}
	return nil
}
