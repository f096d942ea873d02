package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/queueboard/internal/config"
	"github.com/soyeahso/queueboard/internal/domain"
	"github.com/soyeahso/queueboard/internal/hooks"
	"github.com/soyeahso/queueboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command in an isolated QUEUEBOARD_HOME.
func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("QUEUEBOARD_HOME", home)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("QUEUEBOARD_DATABASE_URL", "")
	cfgFile, logLevel = "", ""

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "queueboard dev")
}

func TestInitThenState(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "init", "--write-config")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default config")
	assert.Contains(t, out, "(4 agents)")
	assert.FileExists(t, filepath.Join(home, "config.yaml"))
	assert.FileExists(t, filepath.Join(home, "data", "queue_manager.db"))

	out, err = run(t, home, "state", "--json")
	require.NoError(t, err)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, []string{"Cindy", "Felipe", "Julio", "Victor"}, snap.Names())

	out, err = run(t, home, "state")
	require.NoError(t, err)
	assert.Contains(t, out, "BACKLOG")
	assert.Contains(t, out, "INVESTIGATION")
	assert.Contains(t, out, "Victor")
}

func TestInit_SeedAgentsFromConfig(t *testing.T) {
	home := t.TempDir()
	cfg := config.Defaults()
	cfg.Database.SeedAgents = []string{"Ann", "Bob"}
	require.NoError(t, config.Save(filepath.Join(home, "config.yaml"), cfg))

	out, err := run(t, home, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "(2 agents)")
}

func TestState_MemoryBackendRejected(t *testing.T) {
	home := t.TempDir()
	cfg := config.Defaults()
	cfg.Database.Backend = "memory"
	require.NoError(t, config.Save(filepath.Join(home, "config.yaml"), cfg))

	_, err := run(t, home, "state")
	assert.Error(t, err)
}

func TestConfigPathCmd(t *testing.T) {
	home := t.TempDir()
	out, err := run(t, home, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml")+"\n", out)
}

func TestConfigShowRedactsURL(t *testing.T) {
	home := t.TempDir()
	cfg := config.Defaults()
	cfg.Database.URL = "postgres://queue:hunter2@db:5432/queue"
	require.NoError(t, config.Save(filepath.Join(home, "config.yaml"), cfg))

	out, err := run(t, home, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "db:5432/queue")
}

func TestConfigValidateCmd(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("broadcast:\n  policy: everyone\n"), 0o600))

	out, err := run(t, home, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "broadcast.policy")

	require.NoError(t, config.Save(filepath.Join(home, "config.yaml"), config.Defaults()))
	out, err = run(t, home, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Config OK")
}

func TestStatusCmd(t *testing.T) {
	out, err := run(t, t.TempDir(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Broadcast: include-self")
	assert.Contains(t, out, "Database:  sqlite")
}

func TestServe_InvalidConfigFails(t *testing.T) {
	_, err := run(t, t.TempDir(), "serve", "--broadcast", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestRegisterCommandHooks(t *testing.T) {
	log = logging.New(nil, "silent")
	m := hooks.NewManager(log)

	n := registerCommandHooks(m, config.HooksConfig{
		ClientConnected:    []config.HookEntry{{Command: "true"}},
		ClientDisconnected: []config.HookEntry{{Command: "true"}},
		CellUpdated:        []config.HookEntry{{Command: "true"}, {Command: "true", Timeout: 100}},
		AgentRenamed:       []config.HookEntry{{Command: "true"}},
	})
	assert.Equal(t, 5, n)
	assert.Equal(t, 1, m.Count(hooks.EventClientConnected))
	assert.Equal(t, 1, m.Count(hooks.EventClientDisconnected))
	assert.Equal(t, 2, m.Count(hooks.EventCellUpdated))
	assert.Equal(t, 1, m.Count(hooks.EventAgentRenamed))
	assert.Equal(t, 0, m.Count(hooks.EventDashboardStart))
}
