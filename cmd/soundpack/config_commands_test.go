package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundpack/internal/services"
)

func TestConfigInitWritesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "generated", "config.toml")

	cmd := newRootCommand()
	var stdout strings.Builder
	cmd.SetOut(&stdout)
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs([]string{"--config", filepath.Join(env.baseDir, "does-not-matter.toml"), "config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout.String(), "Wrote sample configuration to "+target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	requireContains(t, string(data), "[packaging]")

	_, _, err = runCLI(t, env, []string{"config", "init", "--path", target})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if _, _, err := runCLI(t, env, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateSkipChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, []string{"config", "validate", "--skip-checks"})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Packages directory: "+env.packagesDir)
	requireContains(t, out, "Hash algorithm: sha256")
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateReportsFailedChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	env.extraConfig = "\n[probe]\nffprobe_binary = \"/nonexistent/ffprobe\"\n"
	env.writeConfig(t)

	out, _, err := runCLI(t, env, []string{"config", "validate"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	requireContains(t, out, "fail")
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.extraConfig = "\n[hashing]\nalgorithm = \"md5\"\n"
	env.writeConfig(t)

	if _, _, err := runCLI(t, env, []string{"list"}); err == nil {
		t.Fatal("expected validation error for unknown hash algorithm")
	}
}
