package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/taskpulse/internal/core"
)

func TestInitCommand_Registration(t *testing.T) {
	if !commandNames(rootCmd)["init"] {
		t.Error("expected 'init' command to be registered")
	}
}

func TestInitCommand_WritesConfig(t *testing.T) {
	dir := t.TempDir()

	out, err := runCmd(t, initCmd, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(dir, core.ConfigFileName)
	if !strings.Contains(out, "Created: "+path) {
		t.Errorf("unexpected output: %s", out)
	}

	cfg, err := core.NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if want := filepath.Join(dir, core.DefaultDataDir); cfg.Storage.Dir != want {
		t.Errorf("storage dir = %q, want %q", cfg.Storage.Dir, want)
	}
}

func TestInitCommand_KeepsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, core.ConfigFileName)
	if err := os.WriteFile(path, []byte("storage:\n  backend: memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, initCmd, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Skipped (already exists)") {
		t.Errorf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "storage:\n  backend: memory\n" {
		t.Errorf("existing config was modified:\n%s", data)
	}
}

func TestInitCommand_DefaultsToBasePath(t *testing.T) {
	dir := t.TempDir()
	setVar(t, &BasePath, dir)

	if _, err := runCmd(t, initCmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err != nil {
		t.Errorf("expected config in base path: %v", err)
	}
}
