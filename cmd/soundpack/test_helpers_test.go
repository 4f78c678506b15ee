package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundpack/internal/testsupport"
)

type cliTestEnv struct {
	baseDir      string
	configPath   string
	resourcesDir string
	packagesDir  string
	artifactsDir string
	dataDir      string
	exportsDir   string
	prober       *testsupport.StubProber
	extraConfig  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("SOUNDPACK_RESOURCES_DIR", "")
	t.Setenv("PINATA_JWT", "")

	env := &cliTestEnv{
		baseDir:      base,
		configPath:   filepath.Join(base, "soundpack.toml"),
		resourcesDir: filepath.Join(base, "Resources"),
		dataDir:      filepath.Join(base, "data"),
		exportsDir:   filepath.Join(base, "exports"),
		prober:       &testsupport.StubProber{},
	}
	env.packagesDir = filepath.Join(env.resourcesDir, "SamplePacks")
	env.artifactsDir = filepath.Join(env.resourcesDir, "Artifacts")
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
resources_dir = %q
data_dir = %q
log_dir = %q
index_path = %q
exports_dir = %q

[logging]
level = "error"
%s`,
		e.resourcesDir,
		e.dataDir,
		filepath.Join(e.baseDir, "logs"),
		filepath.Join(e.baseDir, "index.db"),
		e.exportsDir,
		e.extraConfig,
	)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args []string, opts ...contextOption) (string, string, error) {
	t.Helper()
	opts = append([]contextOption{withProber(env.prober)}, opts...)
	cmd := newRootCommand(opts...)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seedDrumKit writes a source directory with two valid samples, one empty
// file, and one file the include pattern rejects.
func seedDrumKit(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	dir := filepath.Join(env.baseDir, "src", "drum_kit")
	testsupport.WriteWAV(t, filepath.Join(dir, "snare_hit.wav"), "snare")
	testsupport.WriteWAV(t, filepath.Join(dir, "kick-deep.wav"), "kick")
	testsupport.WriteFile(t, filepath.Join(dir, "silent.wav"), 0)
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 12)
	return dir
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
