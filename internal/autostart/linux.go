package autostart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"stfed/internal/util"
	"text/template"
)

const serviceName = "stfed.service"

const serviceTemplate = `[Unit]
Description=Syncthing folder event hooks
After=syncthing.service

[Service]
ExecStart={{.ExecPath}} watch
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

var unitTemplate = template.Must(template.New("service").Parse(serviceTemplate))

type LinuxAutoStarter struct{}

func (l *LinuxAutoStarter) servicePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, "systemd", "user", serviceName), nil
}

func renderUnit(execPath string) ([]byte, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, map[string]string{"ExecPath": execPath}); err != nil {
		return nil, fmt.Errorf("failed to render service file: %w", err)
	}

	return buf.Bytes(), nil
}

func (l *LinuxAutoStarter) Install(execPath string) error {
	path, err := l.servicePath()
	if err != nil {
		return err
	}

	unit, err := renderUnit(execPath)
	if err != nil {
		return err
	}

	if err := util.AtomicWrite(path, bytes.NewReader(unit)); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	cmds := [][]string{
		{"systemctl", "--user", "daemon-reload"},
		{"systemctl", "--user", "enable", serviceName},
		{"systemctl", "--user", "start", serviceName},
	}

	for _, args := range cmds {
		if out, err := runCommand(args[0], args[1:]...); err != nil {
			return fmt.Errorf("failed to run %v: %w\n%s", args, err, out)
		}
	}

	return nil
}

func (l *LinuxAutoStarter) Uninstall() error {
	cmds := [][]string{
		{"systemctl", "--user", "stop", serviceName},
		{"systemctl", "--user", "disable", serviceName},
	}

	for _, args := range cmds {
		_, _ = runCommand(args[0], args[1:]...)
	}

	path, err := l.servicePath()
	if err != nil {
		return err
	}

	if err := util.RemoveIfExists(path); err != nil {
		return err
	}

	_, _ = runCommand("systemctl", "--user", "daemon-reload")
	return nil
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	path, err := l.servicePath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	return err == nil, nil
}
