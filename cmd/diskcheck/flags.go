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
	"os"
	"strconv"
	"strings"

	"diskcheck.org/pkg/check"
	"diskcheck.org/pkg/cmdmain"
	"diskcheck.org/pkg/osutil"

	"github.com/mvo5/goconfigparser"
)

// defaultConfPath holds site-wide defaults; missing is fine.
const defaultConfPath = "/etc/diskcheck.conf"

// policyFlags are the supervisor knobs shared by the "all" and "one"
// modes, plus the options forwarded verbatim to every helper.
type policyFlags struct {
	serialize     bool
	lockDisk      bool
	ignoreMounted bool
	noexecute     bool
	skipRoot      bool
	parallelRoot  bool
	noTitle       bool
	progress      bool
	progressFD    int
	types         string
	maxRunning    int
	fstabPath     string
	confPath      string
	reportStats   bool
	statsFile     string

	flags *flag.FlagSet

	// forwarded helper options, lexical flag order
	fwd map[string]*bool
}

// forwardedOpts are fsck helper options diskcheck does not interpret.
var forwardedOpts = []string{"a", "c", "d", "f", "n", "p", "r", "y"}

func addPolicyFlags(flags *flag.FlagSet) *policyFlags {
	pf := &policyFlags{flags: flags, fwd: make(map[string]*bool)}
	flags.BoolVar(&pf.serialize, "s", false, "serialize the checks, one filesystem at a time")
	flags.BoolVar(&pf.lockDisk, "l", false, "lock each rotational whole disk while checking it")
	flags.BoolVar(&pf.ignoreMounted, "M", false, "skip filesystems that are currently mounted")
	flags.BoolVar(&pf.noexecute, "N", false, "print what would run without running it")
	flags.BoolVar(&pf.skipRoot, "R", false, "skip the root filesystem")
	flags.BoolVar(&pf.parallelRoot, "P", false, "check the root filesystem in parallel with the others")
	flags.BoolVar(&pf.noTitle, "T", false, "do not print the title line")
	flags.BoolVar(&pf.progress, "progress", false, "have capable helpers draw a progress bar")
	flags.IntVar(&pf.progressFD, "progress-fd", 1, "file descriptor the progress bar is drawn on")
	flags.StringVar(&pf.types, "t", "", "comma-separated list of filesystem types to check (see fsck(8) -t)")
	flags.IntVar(&pf.maxRunning, "max-running", 0, "maximum number of helpers in flight; 0 means unlimited")
	flags.StringVar(&pf.fstabPath, "fstab", "", "mount table to read instead of /etc/fstab")
	flags.StringVar(&pf.confPath, "config", "", "defaults file to read instead of "+defaultConfPath)
	flags.BoolVar(&pf.reportStats, "report-stats", false, "print a resource-usage line per completed check")
	flags.StringVar(&pf.statsFile, "report-stats-file", "", "write the statistics lines to this file instead of stdout")
	for _, o := range forwardedOpts {
		pf.fwd[o] = flags.Bool(o, false, "forwarded to every check helper")
	}
	return pf
}

// helperArgs collects the forwarded options that were actually set.
func (pf *policyFlags) helperArgs() []string {
	var args []string
	for _, o := range forwardedOpts {
		if *pf.fwd[o] {
			args = append(args, "-"+o)
		}
	}
	return args
}

// config assembles the supervisor configuration: built-in defaults,
// then the defaults file, then flags, with the DISKCHECK_* parallelism
// knobs on top of everything.
func (pf *policyFlags) config() (check.Config, error) {
	filter, err := check.CompileTypeFilter(pf.types)
	if err != nil {
		return check.Config{}, cmdmain.UsageError(err.Error())
	}
	if pf.types == "" {
		filter = nil
	}

	cfg := check.Config{
		Serialize:     pf.serialize,
		LockDisk:      pf.lockDisk,
		IgnoreMounted: pf.ignoreMounted,
		NoExecute:     pf.noexecute,
		SkipRoot:      pf.skipRoot,
		ParallelRoot:  pf.parallelRoot,
		Progress:      pf.progress,
		ProgressFD:    pf.progressFD,
		MaxRunning:    pf.maxRunning,
		ReportStats:   pf.reportStats,
		Filter:        filter,
		HelperArgs:    pf.helperArgs(),
		SearchPath:    osutil.HelperSearchPath(),
		RuntimeDir:    osutil.RuntimeDir(),
		Logf:          cmdmain.Logf,
	}

	if err := pf.applyConfFile(&cfg); err != nil {
		return check.Config{}, err
	}

	if pf.statsFile != "" {
		f, err := os.Create(pf.statsFile)
		if err != nil {
			return check.Config{}, fmt.Errorf("cannot open statistics file: %v", err)
		}
		cfg.StatsWriter = f
	}

	// The environment has the final word on parallelism, per fsck
	// tradition.
	if osutil.ForceAllParallel() {
		cfg.ForceAllParallel = true
	}
	if n := osutil.MaxInstances(); n > 0 {
		cfg.MaxRunning = n
	}
	return cfg, nil
}

// applyConfFile folds the site defaults file into cfg. Keys only apply
// where the corresponding flag was left untouched, so the command line
// always wins.
func (pf *policyFlags) applyConfFile(cfg *check.Config) error {
	path := pf.confPath
	if path == "" {
		path = defaultConfPath
	}
	f, err := os.Open(path)
	if err != nil {
		if pf.confPath == "" {
			// The default site file is optional.
			return nil
		}
		return fmt.Errorf("cannot read %s: %v", path, err)
	}
	defer f.Close()
	parser := goconfigparser.New()
	if err := parser.Read(f); err != nil {
		return fmt.Errorf("cannot parse %s: %v", path, err)
	}

	set := make(map[string]bool)
	pf.flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if v, err := parser.Get("defaults", "search-path"); err == nil && v != "" && os.Getenv("DISKCHECK_PATH") == "" {
		cfg.SearchPath = splitPath(v)
	}
	if v, err := parser.Get("defaults", "runtime-dir"); err == nil && v != "" && os.Getenv("DISKCHECK_RUNTIME_DIR") == "" {
		cfg.RuntimeDir = v
	}
	if !set["max-running"] {
		if v, err := parser.Get("defaults", "max-instances"); err == nil && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: bad max-instances %q", path, v)
			}
			if n > 0 {
				cfg.MaxRunning = n
			}
		}
	}
	return nil
}

func splitPath(p string) []string {
	var dirs []string
	for _, d := range strings.Split(p, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}
