package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttcn3tools/ttcnsem/internal/utils"
)

const validModule = `module: Valid
declarations:
  - name: c1
    type: integer
    value: {op: "+", args: [1, 2]}
  - name: c2
    type: integer
    value: {op: "*", args: [c1, 2]}
`

const invalidModule = `module: Invalid
declarations:
  - name: c1
    type: integer
    value: {op: "/", args: [1, 0]}
`

func writeModule(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func plain(s string) string {
	return utils.StripANSISequences(s)
}

func run(args ...string) (status int, out string, errOut string) {
	var outW, errW bytes.Buffer
	status = _main(append([]string{COMMAND_NAME}, args...), &outW, &errW)
	return status, plain(outW.String()), plain(errW.String())
}

func TestMain(m *testing.M) {
	//isolate the tests from the configuration of the user.
	dir, err := os.MkdirTemp("", "ttcnsem-config")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CONFIG_HOME", dir)
	os.Setenv("XDG_CONFIG_DIRS", dir)
	xdg.Reload()
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestHelpAndVersion(t *testing.T) {
	t.Run("no arguments", func(t *testing.T) {
		status, out, _ := run()
		assert.Zero(t, status)
		assert.Equal(t, CMD_HELP, out)
	})

	t.Run("-h", func(t *testing.T) {
		status, out, _ := run("-h")
		assert.Zero(t, status)
		assert.Equal(t, CMD_HELP, out)
	})

	t.Run("help <command>", func(t *testing.T) {
		status, out, _ := run("help", "check")
		assert.Zero(t, status)
		assert.Contains(t, out, SUBCOMMAND_DESCRIPTION_MAP[CHECK_SUBCMD])
		assert.Contains(t, out, "-epochs")
	})

	t.Run("version", func(t *testing.T) {
		status, out, _ := run("version")
		assert.Zero(t, status)
		assert.Equal(t, "0.4.0\n", out)
	})
}

func TestUnknownCommand(t *testing.T) {
	t.Run("close to a command", func(t *testing.T) {
		status, _, errOut := run("chekc")
		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.Equal(t, "unknown command 'chekc', did you mean 'check' ?\n", errOut)
	})

	t.Run("far from every command", func(t *testing.T) {
		status, _, errOut := run("frobnicate")
		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.Contains(t, errOut, "unknown command 'frobnicate'")
		assert.Contains(t, errOut, CMD_HELP)
	})
}

func TestCheck(t *testing.T) {
	t.Run("valid module", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModule(t, dir, "valid.yaml", validModule)

		status, out, _ := run("check", "-values", path)
		assert.Zero(t, status)
		assert.Contains(t, out, "c1 = 3")
		assert.Contains(t, out, "c2 = 6")
		assert.Contains(t, out, path+": 0 error(s), 0 warning(s)")
	})

	t.Run("module with an error", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModule(t, dir, "invalid.yaml", invalidModule)

		status, out, _ := run("check", path)
		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.Contains(t, out, "error: the second operand of operation `/' should not be zero")
		assert.Contains(t, out, path+": 1 error(s)")
	})

	t.Run("invalid description", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModule(t, dir, "broken.yaml", "declarations: []\n")

		status, out, _ := run("check", path)
		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.Contains(t, out, "broken.yaml")
	})

	t.Run("glob pattern", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))
		writeModule(t, dir, "m10.yaml", validModule)
		writeModule(t, dir, "m2.yaml", validModule)
		writeModule(t, filepath.Join(dir, "sub"), "m1.yaml", validModule)

		status, out, _ := run("check", filepath.Join(dir, "**", "*.yaml"))
		assert.Zero(t, status)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], filepath.Join(dir, "m2.yaml")))
		assert.True(t, strings.HasPrefix(lines[1], filepath.Join(dir, "m10.yaml")))
		assert.True(t, strings.HasPrefix(lines[2], filepath.Join(dir, "sub", "m1.yaml")))
	})

	t.Run("no matching file", func(t *testing.T) {
		status, _, errOut := run("check", filepath.Join(t.TempDir(), "*.yaml"))
		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.Contains(t, errOut, ErrNoModuleFiles.Error())
	})

	t.Run("several epochs", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModule(t, dir, "valid.yaml", validModule)

		status, out, _ := run("check", "-epochs", "3", path)
		assert.Zero(t, status)
		assert.Contains(t, out, "epoch 3")
	})

	t.Run("invalid number of epochs", func(t *testing.T) {
		status, _, _ := run("check", "-epochs", "0", "x.yaml")
		assert.Equal(t, ERROR_STATUS_CODE, status)
	})

	t.Run("JSON output", func(t *testing.T) {
		dir := t.TempDir()
		valid := writeModule(t, dir, "a.yaml", validModule)
		invalid := writeModule(t, dir, "b.yaml", invalidModule)

		status, out, _ := run("check", "-json", valid, invalid)
		assert.Equal(t, ERROR_STATUS_CODE, status)

		var output struct {
			Run   string `json:"run"`
			Files []struct {
				Path        string `json:"path"`
				Module      string `json:"module"`
				Diagnostics []struct {
					Severity string `json:"severity"`
					Message  string `json:"message"`
				} `json:"diagnostics"`
				Constants map[string]string `json:"constants"`
			} `json:"files"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &output))

		assert.NotEmpty(t, output.Run)
		require.Len(t, output.Files, 2)

		assert.Equal(t, valid, output.Files[0].Path)
		assert.Equal(t, "Valid", output.Files[0].Module)
		assert.Empty(t, output.Files[0].Diagnostics)
		assert.Equal(t, map[string]string{"c1": "3", "c2": "6"}, output.Files[0].Constants)

		assert.Equal(t, "Invalid", output.Files[1].Module)
		require.Len(t, output.Files[1].Diagnostics, 1)
		assert.Equal(t, "error", output.Files[1].Diagnostics[0].Severity)
	})
}

func TestConfigSubcommand(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		status, out, _ := run("config")
		assert.Zero(t, status)
		assert.Contains(t, out, "# no configuration file, defaults")
		assert.Contains(t, out, "type_compatibility:")
	})

	t.Run("explicit file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModule(t, dir, "config.yaml", "severities:\n  no_effect: error\n")

		status, out, _ := run("config", "-config", path)
		assert.Zero(t, status)
		assert.Contains(t, out, "# "+path)
		assert.Contains(t, out, "no_effect: error")
	})

	t.Run("invalid file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeModule(t, dir, "config.yaml", "severities:\n  no_effect: loud\n")

		status, _, errOut := run("config", "-config", path)
		assert.Equal(t, ERROR_STATUS_CODE, status)
		assert.NotEmpty(t, errOut)
	})
}

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return plain(b.buf.String())
}

func TestWatch(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	dir := t.TempDir()
	path := writeModule(t, dir, "m.yaml", validModule)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var outW, errW syncBuffer
	done := make(chan int)
	go func() {
		done <- watchModules(ctx, []string{"-debounce", "20ms", path}, &outW, &errW)
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(outW.String(), path+": 0 error(s)")
	}, 5*time.Second, 10*time.Millisecond)

	writeModule(t, dir, "m.yaml", invalidModule)

	assert.Eventually(t, func() bool {
		return strings.Contains(outW.String(), path+": 1 error(s)")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case status := <-done:
		assert.Zero(t, status)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
