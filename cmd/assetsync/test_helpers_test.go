package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir      string
	storageRoot  string
	manifestPath string
	historyPath  string
	configPath   string
}

type envOption func(*envConfig)

type envConfig struct {
	lock    bool
	history bool
}

func withManifestLock() envOption { return func(c *envConfig) { c.lock = true } }

func withoutHistory() envOption { return func(c *envConfig) { c.history = false } }

func setupCLITestEnv(t *testing.T, opts ...envOption) *cliTestEnv {
	t.Helper()
	settings := envConfig{history: true}
	for _, opt := range opts {
		opt(&settings)
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("ASSETSYNC_STORAGE_ROOT", "")
	t.Setenv("NO_COLOR", "1")

	env := &cliTestEnv{
		baseDir:      base,
		storageRoot:  filepath.Join(base, "storage"),
		manifestPath: filepath.Join(base, "assets", "manifest.yaml"),
		historyPath:  filepath.Join(base, "state", "history.db"),
		configPath:   filepath.Join(base, "assetsync.toml"),
	}
	if err := os.MkdirAll(env.storageRoot, 0o755); err != nil {
		t.Fatalf("mkdir storage: %v", err)
	}

	content := fmt.Sprintf(`[paths]
manifest = %q
history_db = %q

[storage]
base_path = %q
subfolders = ["samples", "presets"]

[manifest]
lock = %t

[history]
enabled = %t
`, env.manifestPath, env.historyPath, env.storageRoot, settings.lock, settings.history)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...))
}

// writeAsset creates root/category/name with content.
func (e *cliTestEnv) writeAsset(t *testing.T, category, name, content string) string {
	t.Helper()
	dir := filepath.Join(e.storageRoot, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// writeSource creates a file outside the storage root.
func (e *cliTestEnv) writeSource(t *testing.T, name, content string) string {
	t.Helper()
	dir := filepath.Join(e.baseDir, "incoming")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir incoming: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
