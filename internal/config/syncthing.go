package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

type SyncthingGUI struct {
	Address string `xml:"address"`
	APIKey  string `xml:"apikey"`
}

func (g SyncthingGUI) URL() string {
	return "http://" + g.Address
}

type syncthingXML struct {
	GUI SyncthingGUI `xml:"gui"`
}

// SyncthingConfigPaths lists where Syncthing keeps config.xml, newest
// layout first.
func SyncthingConfigPaths() []string {
	var paths []string

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			stateHome = filepath.Join(home, ".local", "state")
		}
	}
	if stateHome != "" {
		paths = append(paths, filepath.Join(stateHome, "syncthing", "config.xml"))
	}

	if configHome, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configHome, "syncthing", "config.xml"))
	}

	return paths
}

func ReadSyncthingGUI(path string) (SyncthingGUI, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SyncthingGUI{}, err
	}

	var cfg syncthingXML
	if err := xml.Unmarshal(b, &cfg); err != nil {
		return SyncthingGUI{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cfg.GUI.Address == "" || cfg.GUI.APIKey == "" {
		return SyncthingGUI{}, fmt.Errorf("%s has no gui address or api key", path)
	}

	return cfg.GUI, nil
}

func FindSyncthingGUI() (SyncthingGUI, error) {
	for _, path := range SyncthingConfigPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		return ReadSyncthingGUI(path)
	}

	return SyncthingGUI{}, fmt.Errorf("no Syncthing config.xml found")
}
