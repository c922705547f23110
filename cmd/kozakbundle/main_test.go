package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozakscript/bundler"
	"github.com/kozakscript/bundler/config"
	"github.com/kozakscript/bundler/resource"
)

func TestParseArgs(t *testing.T) {
	cmd, err := parseArgs([]string{
		"--config", "kozak.toml",
		"game.kozak",
		"--icon", "game.ico",
		"--add-data", "assets/config.txt;config.txt",
		"--add-data", "levels.json;data/levels.json",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "kozak.toml", cmd.Config)
	assert.Equal(t, "game.kozak", cmd.Script)
	assert.Equal(t, "game.ico", cmd.Icon)
	assert.Equal(t, dataFlag{
		{Source: "assets/config.txt", Destination: "config.txt"},
		{Source: "levels.json", Destination: "data/levels.json"},
	}, cmd.Data)
	assert.Equal(t, "assets/config.txt;config.txt, levels.json;data/levels.json", cmd.Data.String())
}

func TestParseArgs_errors(t *testing.T) {
	for name, args := range map[string][]string{
		"no script":        {"--icon", "game.ico"},
		"two scripts":      {"a.kozak", "b.kozak"},
		"bad mapping":      {"game.kozak", "--add-data", "config.txt"},
		"missing argument": {"game.kozak", "--icon"},
	} {
		t.Run(name, func(t *testing.T) {
			out := new(bytes.Buffer)
			_, err := parseArgs(args, out)
			assert.Error(t, err)
			assert.NotEmpty(t, out.String())
		})
	}
}

func TestParseArgs_help(t *testing.T) {
	out := new(bytes.Buffer)
	_, err := parseArgs([]string{"-h"}, out)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "Usage: kozakbundle")
	assert.Contains(t, out.String(), "Resource Hacker")
	for _, line := range strings.Split(out.String(), "\n") {
		if !strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "Usage") {
			assert.LessOrEqual(t, len(line), 72, line)
		}
	}
}

func TestConfirm(t *testing.T) {
	out := new(bytes.Buffer)
	ask := confirm(strings.NewReader("y\nn\nY\n"), out)
	assert.True(t, ask("continue?"))
	assert.False(t, ask("continue?"))
	assert.True(t, ask("continue?"))
	assert.False(t, ask("continue?"), "EOF")
	assert.Contains(t, out.String(), "continue? (y/n): ")
}

type runFixture struct {
	dir    string
	cmd    *CommandLine
	logs   *bytes.Buffer
	logger *log.Logger
}

func newRunFixture(t *testing.T) *runFixture {
	for _, name := range []string{config.EnvInterpreter, config.EnvOutputDir, config.EnvExtension, config.EnvTool, config.EnvNativeIcons} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	write("main.exe", strings.Repeat("MZ", 100))
	cfg := write("kozak.toml", fmt.Sprintf("interpreter = %q\noutput_dir = %q\n[icon]\ntools = [%q]\n",
		filepath.Join(dir, "main.exe"),
		filepath.Join(dir, "build_exe"),
		filepath.Join(dir, "no-such-tool.exe")))
	script := write("game.kozak", "Drukuvaty(\"hi\");\n")

	logs := new(bytes.Buffer)
	return &runFixture{
		dir:    dir,
		cmd:    &CommandLine{Config: cfg, Script: script},
		logs:   logs,
		logger: log.New(logs, "", 0),
	}
}

func (f *runFixture) artifact() string {
	return filepath.Join(f.dir, "build_exe", "game.exe")
}

func TestRun(t *testing.T) {
	f := newRunFixture(t)
	require.NoError(t, run(f.cmd, strings.NewReader(""), io.Discard, f.logger))
	assert.FileExists(t, f.artifact())
	assert.Contains(t, f.logs.String(), "Created "+f.artifact())
}

func TestRun_missingScript(t *testing.T) {
	f := newRunFixture(t)
	f.cmd.Script = filepath.Join(f.dir, "missing.kozak")

	err := run(f.cmd, strings.NewReader(""), io.Discard, f.logger)
	assert.True(t, bundler.IsKind(err, bundler.KindInput))
	assert.Equal(t, 1, exitCode(f.logger, err))
	assert.Contains(t, f.logs.String(), "[INPUT ERROR]")
}

func TestRun_missingIcon(t *testing.T) {
	f := newRunFixture(t)
	f.cmd.Icon = filepath.Join(f.dir, "missing.ico")

	require.NoError(t, run(f.cmd, strings.NewReader(""), io.Discard, f.logger))
	assert.FileExists(t, f.artifact())
	assert.Contains(t, f.logs.String(), "icon not found")
}

func TestRun_iconDeclined(t *testing.T) {
	f := newRunFixture(t)
	f.cmd.Icon = f.cmd.Script // any existing file, it is never parsed

	out := new(bytes.Buffer)
	err := run(f.cmd, strings.NewReader("n\n"), out, f.logger)
	assert.ErrorIs(t, err, resource.ErrDeclined)
	assert.Contains(t, out.String(), "Continue bundling without icon?")
	assert.NoFileExists(t, f.artifact())
}

func TestRun_iconSkipped(t *testing.T) {
	f := newRunFixture(t)
	f.cmd.Icon = f.cmd.Script

	require.NoError(t, run(f.cmd, strings.NewReader("y\n"), io.Discard, f.logger))
	assert.FileExists(t, f.artifact())
	assert.Contains(t, f.logs.String(), "Skipping icon")
}

func TestRun_dataFiles(t *testing.T) {
	f := newRunFixture(t)
	src := filepath.Join(f.dir, "config.txt")
	require.NoError(t, os.WriteFile(src, []byte("volume=11"), 0644))
	f.cmd.Data = dataFlag{{Source: src, Destination: "config.txt"}}

	require.NoError(t, run(f.cmd, strings.NewReader(""), io.Discard, f.logger))

	p, err := bundler.OpenExe(f.artifact())
	require.NoError(t, err)
	defer p.Close()
	files := p.DataFiles()
	require.Len(t, files, 1)
	assert.Equal(t, "config.txt", files[0].Destination)
}

func TestRun_badConfig(t *testing.T) {
	f := newRunFixture(t)
	f.cmd.Config = filepath.Join(f.dir, "missing.toml")

	err := run(f.cmd, strings.NewReader(""), io.Discard, f.logger)
	assert.True(t, bundler.IsKind(err, bundler.KindConfig))
}

func TestExitCode(t *testing.T) {
	logs := new(bytes.Buffer)
	logger := log.New(logs, "", 0)

	assert.Zero(t, exitCode(logger, nil))
	assert.Empty(t, logs.String())

	assert.Equal(t, 1, exitCode(logger, errors.New("boom")))
	assert.Equal(t, "[ERROR] boom\n", logs.String())

	logs.Reset()
	assert.Equal(t, 1, exitCode(logger, bundler.Errorf(bundler.KindResource, "commit failed")))
	assert.Equal(t, "[RESOURCE ERROR] commit failed\n", logs.String())
}
