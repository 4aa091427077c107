package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	global := t.TempDir()
	cfg, err := LoadFrom(global, "")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" || cfg.Backend.APIPrefix != "/api/v1" {
		t.Errorf("unexpected backend defaults: %+v", cfg.Backend)
	}
	if cfg.UI.NoticeTTL != 3*time.Second {
		t.Errorf("expected 3s notice TTL, got %v", cfg.UI.NoticeTTL)
	}
	if cfg.Database.DSN != filepath.Join(global, "console.db") {
		t.Errorf("sqlite DSN should live in the home dir, got %q", cfg.Database.DSN)
	}
	if cfg.File != "" {
		t.Errorf("no file expected, got %q", cfg.File)
	}
}

func TestLoadFrom_Layers(t *testing.T) {
	global := t.TempDir()
	local := t.TempDir()
	writeFile(t, filepath.Join(global, "config.yaml"), "backend:\n  base_url: http://global:8000/\nui:\n  notice_ttl: 5s\n")
	writeFile(t, filepath.Join(local, "config.yaml"), "backend:\n  base_url: http://local:8000\n")

	cfg, err := LoadFrom(global, local)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backend.BaseURL != "http://local:8000" {
		t.Errorf("local layer should win, got %q", cfg.Backend.BaseURL)
	}
	if cfg.UI.NoticeTTL != 5*time.Second {
		t.Errorf("global value should survive the merge, got %v", cfg.UI.NoticeTTL)
	}
	if filepath.Base(filepath.Dir(cfg.File)) != filepath.Base(local) {
		t.Errorf("expected local file to be reported, got %q", cfg.File)
	}
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv(LegacyBaseURLEnv, "http://legacy:1234")
	cfg, err := LoadFrom(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "http://legacy:1234" {
		t.Errorf("legacy env should apply, got %q", cfg.Backend.BaseURL)
	}

	t.Setenv("AGENTOPS_BACKEND_BASE_URL", "http://env:9999")
	t.Setenv("AGENTOPS_SERVER_PORT", "8088")
	cfg, err = LoadFrom(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "http://env:9999" {
		t.Errorf("prefixed env should win over legacy, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Server.Port != 8088 {
		t.Errorf("expected port 8088, got %d", cfg.Server.Port)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	global := t.TempDir()
	writeFile(t, filepath.Join(global, "config.yaml"), "database:\n  type: oracle\n")
	if _, err := LoadFrom(global, ""); err == nil {
		t.Error("unsupported database type should fail")
	}
}

func TestBootstrap(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := Bootstrap(zap.NewNop()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	path := filepath.Join(home, ".agentops", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	writeFile(t, path, "# edited\n")
	if err := Bootstrap(zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadFile(path)
	if string(after) != "# edited\n" {
		t.Error("bootstrap must not overwrite user edits")
	}

	// The generated default must itself load.
	writeFile(t, path, string(data))
	cfg, err := LoadFrom(filepath.Join(home, ".agentops"), "")
	if err != nil {
		t.Fatalf("default config should load: %v", err)
	}
	if cfg.Server.Port != 5173 {
		t.Errorf("unexpected port %d", cfg.Server.Port)
	}
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "backend:\n  base_url: http://one:8000\n")

	cfg, err := LoadFrom(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	w := NewWatcher(cfg, func() (*Config, error) { return LoadFrom(dir, "") }, zap.NewNop())
	w.debounce = 10 * time.Millisecond

	got := make(chan string, 4)
	w.OnChange(func(c *Config) { got <- c.Backend.BaseURL })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	writeFile(t, path, "backend:\n  base_url: http://two:8000\n")

	select {
	case url := <-got:
		if url != "http://two:8000" {
			t.Errorf("unexpected reloaded URL %q", url)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config change not observed")
	}
	if w.Config().Backend.BaseURL != "http://two:8000" {
		t.Error("Config() should return the reloaded value")
	}
}
