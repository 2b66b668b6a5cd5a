package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runSage(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotEmpty(t, stdout)

	_, stderr, err = runSage(t, binaryPath, home,
		"profile", "add", "local",
		"--model", "qwen",
		"--endpoint", "http://127.0.0.1:9000/v1",
		"--context", "32768",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runSage(t, binaryPath, home, "profile", "switch", "local")
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runSage(t, binaryPath, home, "config", "set", "code_theme", "dracula")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err = runSage(t, binaryPath, home, "config", "show")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "active_profile = local")
	assert.Contains(t, stdout, "model = qwen")
	assert.Contains(t, stdout, "context_length = 32768")
	assert.Contains(t, stdout, "code_theme = dracula")

	_, err = os.Stat(filepath.Join(home, ".sage", "settings.toml"))
	require.NoError(t, err)
}

func TestSmokeRejectsBadConfig(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runSage(t, binaryPath, home, "config", "set", "refresh_rate", "0")
	require.Error(t, err)
	assert.Contains(t, stderr, "refresh rate 0 outside 1-120")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "sage-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sage")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build sage binary: %s", string(output))
	return binaryPath
}

func runSage(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "OPENAI_API_KEY=")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
