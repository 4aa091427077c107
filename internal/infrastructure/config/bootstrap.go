package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// AppName is the canonical application name
const AppName = "agentops"

// HomeDir returns the console's configuration home: ~/.agentops
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+AppName)
}

// LogDir is where the rotating log file lives by default.
func LogDir() string {
	return filepath.Join(HomeDir(), "logs")
}

// Bootstrap ensures the home directory exists and writes a default
// config.yaml when there is none. Existing files are never overwritten.
func Bootstrap(logger *zap.Logger) error {
	root := HomeDir()
	for _, dir := range []string{root, LogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	path := filepath.Join(root, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		logger.Debug("AgentOps home directory OK", zap.String("home", root))
		return nil
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	logger.Info("AgentOps bootstrap complete",
		zap.String("home", root),
		zap.String("config", path),
	)
	return nil
}

const defaultConfig = `# AgentOps console configuration
# Auto-generated on first launch, feel free to edit.
# Every key can be overridden with AGENTOPS_<SECTION>_<KEY>, e.g.
# AGENTOPS_BACKEND_BASE_URL=http://agents.internal:8000

# ─── Backend ────────────────────────────────────────────────
# Changes to base_url are picked up without a restart.
backend:
  base_url: http://localhost:8000
  api_prefix: /api/v1
  timeout: 120s

# ─── Browser console (agentops serve) ───────────────────────
server:
  host: 127.0.0.1
  port: 5173
  mode: local                  # local | production

# ─── Local store (preferences, activity log) ────────────────
database:
  type: sqlite                 # sqlite | postgres
  dsn: console.db              # relative to ~/.agentops for sqlite

# ─── Logging ────────────────────────────────────────────────
# The terminal console always logs to file (default ~/.agentops/logs/console.log).
log:
  level: info                  # debug | info | warn | error
  format: json                 # json | console
  file: ""
  max_size: 10MB
  max_backups: 3
  max_age_days: 28

# ─── UI ─────────────────────────────────────────────────────
ui:
  notice_ttl: 3s
`
