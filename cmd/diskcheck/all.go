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

type allCmd struct {
	pf *policyFlags
}

func init() {
	cmdmain.RegisterCommand("all", func(flags *flag.FlagSet) cmdmain.CommandRunner {
		return &allCmd{pf: addPolicyFlags(flags)}
	})
}

func (c *allCmd) Describe() string {
	return "Check every filesystem in the mount table, in fsck pass order."
}

func (c *allCmd) Usage() {
	fmt.Fprintf(cmdmain.Stderr, "Usage: diskcheck [globalopts] all [opts]\n")
}

func (c *allCmd) Examples() []string {
	return []string{
		"",
		"-P -l",
		"-t ext4,ext3 -M",
	}
}

func (c *allCmd) RunCommand(args []string) error {
	if len(args) != 0 {
		return cmdmain.ErrUsage
	}
	cfg, err := c.pf.config()
	if err != nil {
		return err
	}
	printTitle(c.pf)

	path := c.pf.fstabPath
	if path == "" {
		path = osutil.MountTablePath()
	}
	entries, err := fstab.Load(path, func(line int, err error) {
		fmt.Fprintf(cmdmain.Stderr, "diskcheck: warning: %s:%d: %v\n", path, line, err)
	})
	if err != nil {
		return fmt.Errorf("cannot read the mount table: %v", err)
	}

	checker := check.New(cfg, entries)
	checker.HandleSignals()
	status := checker.CheckAll()
	if status != check.ExitOK {
		cmdmain.Logf("aggregate status: %v", status)
		return cmdmain.StatusError{Status: int(status)}
	}
	return nil
}
