package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const syncthingConfigXML = `<configuration version="37">
    <folder id="abcd-1234" label="Data" path="/data" type="sendreceive"></folder>
    <gui enabled="true" tls="false">
        <address>127.0.0.1:8384</address>
        <apikey>from-xml</apikey>
    </gui>
</configuration>`

// isolate points every lookup location at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	t.Setenv("STFED_URL", "")
	t.Setenv("STFED_API_KEY", "")
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFrom_Defaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Empty(t, cfg.URL)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, 8385, cfg.DaemonPort)
	assert.Equal(t, filepath.Join(dir, "stfed.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "hooks.toml"), cfg.HooksFile)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.RESTTimeout)
	assert.Equal(t, time.Hour, cfg.EventTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)

	assert.Error(t, cfg.RequireAPI())
}

func TestLoadFrom_File(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `
url = "http://127.0.0.1:9999"
api_key = "secret"
daemon_port = 9100
reconnect_delay = "1s"
hooks_file = "/etc/stfed/hooks.toml"
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9999", cfg.URL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 9100, cfg.DaemonPort)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
	assert.Equal(t, "/etc/stfed/hooks.toml", cfg.HooksFile)
	assert.NoError(t, cfg.RequireAPI())
}

func TestLoadFrom_Env(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `daemon_port = 9100`)
	t.Setenv("STFED_DAEMON_PORT", "9200")
	t.Setenv("STFED_API_KEY", "env-key")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.DaemonPort)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoadFrom_SyncthingFallback(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".local", "state", "syncthing", "config.xml"), syncthingConfigXML)
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8384", cfg.URL)
	assert.Equal(t, "from-xml", cfg.APIKey)

	// Explicit values win over config.xml.
	writeFile(t, filepath.Join(dir, "config.toml"), `api_key = "mine"`)
	cfg, err = LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8384", cfg.URL)
	assert.Equal(t, "mine", cfg.APIKey)
}

func TestLoadFrom_Invalid(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `daemon_port = 70000`)

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"negative port", func(c *Config) { c.DaemonPort = -1 }},
		{"zero reconnect delay", func(c *Config) { c.ReconnectDelay = 0 }},
		{"zero rest timeout", func(c *Config) { c.RESTTimeout = 0 }},
		{"zero event timeout", func(c *Config) { c.EventTimeout = 0 }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestReadSyncthingGUI(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.xml")
	writeFile(t, path, syncthingConfigXML)
	gui, err := ReadSyncthingGUI(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8384", gui.Address)
	assert.Equal(t, "from-xml", gui.APIKey)

	empty := filepath.Join(dir, "empty.xml")
	writeFile(t, empty, `<configuration><gui></gui></configuration>`)
	_, err = ReadSyncthingGUI(empty)
	assert.Error(t, err)

	_, err = ReadSyncthingGUI(filepath.Join(dir, "missing.xml"))
	assert.Error(t, err)
}
