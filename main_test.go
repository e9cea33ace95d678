package main

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainConfigEnv = "TELEMETRY_MAIN_CONFIG"

func TestMainStartup(t *testing.T) {
	if p := os.Getenv(mainConfigEnv); p != "" {
		os.Args = []string{"telemetry", "-config", p}
		main()
		return
	}
	t.Run("should log a config error through slog and exit non-zero", func(t *testing.T) {
		p := writeConfig(t, "entities:\n  - id: a\n    seedLatitude: 91\n")
		cmd := exec.Command(os.Args[0], "-test.run=^TestMainStartup$")
		cmd.Env = append(os.Environ(), mainConfigEnv+"="+p)
		out, err := cmd.CombinedOutput()

		var exitErr *exec.ExitError
		require.True(t, errors.As(err, &exitErr), "output: %s", out)
		assert.Equal(t, 1, exitErr.ExitCode())
		assert.Contains(t, string(out), "level=ERROR")
		assert.Contains(t, string(out), `msg="load config failed"`)
	})
}
