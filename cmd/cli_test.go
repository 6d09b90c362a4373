package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

// ── fakes ────────────────────────────────────────────────────────────────────

// fakeYarn writes a shell script that records its working directory and
// arguments, then runs body.
type fakeYarn struct {
	bin     string
	argv    string
	cwdFile string
}

func newFakeYarn(t *testing.T, body string) *fakeYarn {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yarn is a POSIX shell script")
	}
	dir := t.TempDir()
	f := &fakeYarn{
		bin:     filepath.Join(dir, "yarn"),
		argv:    filepath.Join(dir, "argv.txt"),
		cwdFile: filepath.Join(dir, "cwd.txt"),
	}
	script := fmt.Sprintf(`#!/bin/sh
pwd > '%s'
: > '%s'
for a in "$@"; do
  printf '%%s\n' "$a" >> '%s'
done
%s
`, f.cwdFile, f.argv, f.argv, body)
	if err := os.WriteFile(f.bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fakeYarn) ran() bool {
	_, err := os.Stat(f.argv)
	return err == nil
}

func (f *fakeYarn) args(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.argv)
	if err != nil {
		t.Fatalf("fake yarn did not run: %v", err)
	}
	out := []string{}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (f *fakeYarn) cwd(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.cwdFile)
	if err != nil {
		t.Fatalf("fake yarn did not run: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func sameDir(t *testing.T, a, b string) bool {
	t.Helper()
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		t.Fatal(err)
	}
	return ra == rb
}

// ── helpers ──────────────────────────────────────────────────────────────────

const devManifest = `{"name": "demo", "devDependencies": {"mocha": "^10.0.0", "chai": "^4.3.0"}}`

// newProject writes manifestJSON to root/package.json and creates root/sub.
func newProject(t *testing.T, manifestJSON string) (root, sub string) {
	t.Helper()
	root = t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(manifestJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	sub = filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	return root, sub
}

// cliEnv is an isolated config file whose run logs go to a temp dir.
type cliEnv struct {
	cfgPath string
	logDir  string
}

func newCLIEnv(t *testing.T, extraYAML string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{
		cfgPath: filepath.Join(dir, "config.yaml"),
		logDir:  filepath.Join(dir, "logs"),
	}
	body := fmt.Sprintf("logDir: %q\n", env.logDir) + extraYAML
	if err := os.WriteFile(env.cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

// flags returns the leading flags selecting env, f and the project dir.
func (e cliEnv) flags(f *fakeYarn, dir string) []string {
	return []string{"--config", e.cfgPath, "--bin", f.bin, "-C", dir}
}

// runCLI executes a fresh command tree and returns the exit code and output.
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	code = exitCode(root.Execute(), &errOut)
	return code, out.String(), errOut.String()
}

// ── dispatch ─────────────────────────────────────────────────────────────────

// TestDevDefaultsFromManifest verifies a category command without names
// re-adds the manifest section in order, from the project root found above -C.
func TestDevDefaultsFromManifest(t *testing.T) {
	f := newFakeYarn(t, "")
	root, sub := newProject(t, devManifest)
	env := newCLIEnv(t, "")

	code, _, stderr := runCLI(t, append(env.flags(f, sub), "dev")...)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	want := []string{"add", "-D", "mocha", "chai"}
	if got := f.args(t); !reflect.DeepEqual(got, want) {
		t.Errorf("yarn argv = %v, want %v", got, want)
	}
	if !sameDir(t, f.cwd(t), root) {
		t.Errorf("yarn cwd = %q, want project root %q", f.cwd(t), root)
	}
}

// TestCategoryCommands verifies names and aliases map to the right yarn call.
func TestCategoryCommands(t *testing.T) {
	cases := []struct {
		args []string
		want []string
	}{
		{[]string{"global", "x"}, []string{"global", "add", "x"}},
		{[]string{"deps", "lodash"}, []string{"add", "lodash"}},
		{[]string{"prod", "lodash"}, []string{"add", "lodash"}},
		{[]string{"devDependencies", "sinon"}, []string{"add", "-D", "sinon"}},
		{[]string{"peer", "react"}, []string{"add", "-P", "react"}},
		{[]string{"optional", "fsevents"}, []string{"add", "-O", "fsevents"}},
		{[]string{"dev", "-E", "mocha"}, []string{"add", "-D", "-E", "mocha"}},
		{[]string{"dev", "-i", "-y"}, []string{"add", "-D", "mocha", "chai"}},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			f := newFakeYarn(t, "")
			root, _ := newProject(t, devManifest)
			env := newCLIEnv(t, "")

			code, _, stderr := runCLI(t, append(env.flags(f, root), tc.args...)...)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr = %q", code, stderr)
			}
			if got := f.args(t); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("yarn argv = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestYarnFlagsPassThrough verifies yarn flags after the command name reach
// yarn instead of being rejected, and a raw call splits off the subcommand.
func TestYarnFlagsPassThrough(t *testing.T) {
	cases := []struct {
		args []string
		want []string
	}{
		{[]string{"add", "-D", "mocha"}, []string{"add", "-D", "mocha"}},
		{[]string{"install", "--frozen-lockfile"}, []string{"install", "--frozen-lockfile"}},
		{[]string{"why", "left-pad"}, []string{"why", "left-pad"}},
		{[]string{"add", "--", "-E", "x"}, []string{"add", "-E", "x"}},
		{[]string{"info", "react", "--json"}, []string{"info", "react", "--json"}},
		{[]string{"run", "build", "--", "--watch"}, []string{"run", "build", "--", "--watch"}},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			f := newFakeYarn(t, "")
			root, _ := newProject(t, devManifest)
			env := newCLIEnv(t, "")

			code, _, stderr := runCLI(t, append(env.flags(f, root), tc.args...)...)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr = %q", code, stderr)
			}
			if got := f.args(t); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("yarn argv = %v, want %v", got, tc.want)
			}
			if !sameDir(t, f.cwd(t), root) {
				t.Errorf("yarn cwd = %q, want %q", f.cwd(t), root)
			}
		})
	}
}

// TestDoubleDashReachesYarn verifies a leading "--" forwards names kb-yarn
// would otherwise handle itself.
func TestDoubleDashReachesYarn(t *testing.T) {
	cases := [][]string{
		{"config", "get", "registry"},
		{"global", "ls"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc, " "), func(t *testing.T) {
			f := newFakeYarn(t, "")
			root, _ := newProject(t, devManifest)
			env := newCLIEnv(t, "")

			args := append(env.flags(f, root), "--")
			code, _, stderr := runCLI(t, append(args, tc...)...)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr = %q", code, stderr)
			}
			if got := f.args(t); !reflect.DeepEqual(got, tc) {
				t.Errorf("yarn argv = %v, want %v", got, tc)
			}
		})
	}
}

// TestHelpDoesNotRunYarn verifies --help before yarn's arguments shows usage.
func TestHelpDoesNotRunYarn(t *testing.T) {
	f := newFakeYarn(t, "")
	root, _ := newProject(t, devManifest)
	env := newCLIEnv(t, "")

	code, stdout, _ := runCLI(t, append(env.flags(f, root), "add", "--help")...)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if f.ran() {
		t.Error("yarn ran for --help")
	}
	if !strings.Contains(stdout, "yarn add") {
		t.Errorf("help output %q does not describe the command", stdout)
	}
}

// ── manifest search ──────────────────────────────────────────────────────────

// TestDepthZeroFromSubdir verifies --depth 0 stops the search at -C, so a
// manifest one level up is not found and yarn never runs.
func TestDepthZeroFromSubdir(t *testing.T) {
	f := newFakeYarn(t, "")
	_, sub := newProject(t, devManifest)
	env := newCLIEnv(t, "")

	args := append([]string{"--depth", "0"}, env.flags(f, sub)...)
	code, _, stderr := runCLI(t, append(args, "dev")...)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if f.ran() {
		t.Error("yarn ran without a manifest")
	}
	if !strings.Contains(stderr, "package.json not found") {
		t.Errorf("stderr = %q, want manifest error", stderr)
	}
}

// TestNothingToInstall verifies an absent section is a quiet no-op.
func TestNothingToInstall(t *testing.T) {
	f := newFakeYarn(t, "")
	root, _ := newProject(t, `{"name": "demo"}`)
	env := newCLIEnv(t, "")

	code, _, stderr := runCLI(t, append(env.flags(f, root), "peer")...)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if f.ran() {
		t.Error("yarn ran for an empty section")
	}
	if !strings.Contains(stderr, "Nothing to install") {
		t.Errorf("stderr = %q, want no-op notice", stderr)
	}
}

// ── exit codes ───────────────────────────────────────────────────────────────

// TestExitCodePassthrough verifies yarn's exit code becomes the process exit
// code, with a message only in strict mode.
func TestExitCodePassthrough(t *testing.T) {
	cases := []struct {
		name    string
		cfgYAML string
		flags   []string
		strict  bool
	}{
		{"default", "", nil, false},
		{"strict flag", "", []string{"--strict"}, true},
		{"strict config", "strict: true\n", nil, true},
		{"flag overrides config", "strict: true\n", []string{"--strict=false"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeYarn(t, "exit 3")
			root, _ := newProject(t, devManifest)
			env := newCLIEnv(t, tc.cfgYAML)

			args := append(env.flags(f, root), tc.flags...)
			code, _, stderr := runCLI(t, append(args, "install")...)
			if code != 3 {
				t.Errorf("exit code = %d, want 3", code)
			}
			if got := strings.Contains(stderr, "exit status 3"); got != tc.strict {
				t.Errorf("stderr = %q, failure message present = %v, want %v", stderr, got, tc.strict)
			}
			if !strings.Contains(stderr, env.logDir) {
				t.Errorf("stderr = %q, want run log path under %s", stderr, env.logDir)
			}
		})
	}
}

// TestMissingExecutable verifies a launch failure exits 1.
func TestMissingExecutable(t *testing.T) {
	root, _ := newProject(t, devManifest)
	env := newCLIEnv(t, "")

	bin := filepath.Join(t.TempDir(), "no-such-yarn")
	code, _, stderr := runCLI(t, "--config", env.cfgPath, "--bin", bin, "-C", root, "install")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "no-such-yarn") {
		t.Errorf("stderr = %q, want executable name", stderr)
	}
}

// ── config ───────────────────────────────────────────────────────────────────

// TestFlagsOverrideConfigFile verifies file values hold unless a flag is given.
func TestFlagsOverrideConfigFile(t *testing.T) {
	root, _ := newProject(t, devManifest)
	env := newCLIEnv(t, "bin: from-file\ndepth: 2\n")

	code, stdout, stderr := runCLI(t, "--config", env.cfgPath, "-C", root, "config")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	for _, want := range []string{"bin: from-file", "depth: 2", "strict: false"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output %q missing %q", stdout, want)
		}
	}
	if strings.Contains(stdout, "logLevel") {
		t.Errorf("config output %q has a log level without --verbose", stdout)
	}

	code, stdout, stderr = runCLI(t, "--config", env.cfgPath, "-C", root,
		"config", "--bin", "/opt/yarn", "--depth", "3", "--strict", "--verbose")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	for _, want := range []string{"bin: /opt/yarn", "depth: 3", "strict: true", "logLevel: debug"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output %q missing %q", stdout, want)
		}
	}
}

// TestConfigInit verifies init writes once and refuses to overwrite.
func TestConfigInit(t *testing.T) {
	root, _ := newProject(t, devManifest)
	path := filepath.Join(t.TempDir(), "kb-yarn", "config.yaml")

	code, _, stderr := runCLI(t, "--config", path, "-C", root, "--depth", "4", "config", "init")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "depth: 4") {
		t.Errorf("written config %q missing depth: 4", string(data))
	}

	if code, _, _ := runCLI(t, "--config", path, "-C", root, "config", "init"); code != 1 {
		t.Errorf("second init exit code = %d, want 1", code)
	}
	if code, _, _ := runCLI(t, "--config", path, "-C", root, "config", "init", "--force"); code != 0 {
		t.Errorf("init --force exit code = %d, want 0", code)
	}
}

// ── logs & status ────────────────────────────────────────────────────────────

// TestRunLogsPruned verifies each run keeps at most keepLogs run logs.
func TestRunLogsPruned(t *testing.T) {
	f := newFakeYarn(t, "")
	root, _ := newProject(t, devManifest)
	env := newCLIEnv(t, "")

	if err := os.MkdirAll(env.logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < keepLogs+5; i++ {
		name := fmt.Sprintf("run-20000101-0000%02d.000.log", i)
		if err := os.WriteFile(filepath.Join(env.logDir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if code, _, stderr := runCLI(t, append(env.flags(f, root), "install")...); code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}

	logs, err := filepath.Glob(filepath.Join(env.logDir, "*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != keepLogs {
		t.Errorf("run logs = %d, want %d", len(logs), keepLogs)
	}
	if _, err := os.Stat(filepath.Join(env.logDir, "run-20000101-000000.000.log")); !os.IsNotExist(err) {
		t.Error("oldest run log survived pruning")
	}
}

// TestLogsPath verifies logs --path names the newest run log and that it
// records the yarn invocation.
func TestLogsPath(t *testing.T) {
	f := newFakeYarn(t, "")
	root, _ := newProject(t, devManifest)
	env := newCLIEnv(t, "")

	if code, _, stderr := runCLI(t, append(env.flags(f, root), "why", "left-pad")...); code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}

	code, stdout, stderr := runCLI(t, "--config", env.cfgPath, "logs", "--path")
	if code != 0 {
		t.Fatalf("logs exit code = %d, stderr = %q", code, stderr)
	}
	path := strings.TrimSpace(stdout)
	if filepath.Dir(path) != env.logDir {
		t.Errorf("logs --path = %q, want file in %s", path, env.logDir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "why left-pad") {
		t.Errorf("run log %q does not record the invocation", string(data))
	}
}

// TestStatusListsSections verifies status shows the root and manifest entries.
func TestStatusListsSections(t *testing.T) {
	f := newFakeYarn(t, "")
	root, sub := newProject(t, devManifest)
	env := newCLIEnv(t, "")

	code, stdout, stderr := runCLI(t, append(env.flags(f, sub), "status")...)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	for _, want := range []string{filepath.Join(root, "package.json"), "devDependencies:", "mocha", "^4.3.0"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status output missing %q:\n%s", want, stdout)
		}
	}
	if f.ran() {
		t.Error("status ran yarn")
	}
}
