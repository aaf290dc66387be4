package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "robotview.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[broker]
url = "tcp://broker.local:1883"
username = "console"

[state]
robot_id = 7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Broker.URL != "tcp://broker.local:1883" {
		t.Errorf("broker.url = %q", cfg.Broker.URL)
	}
	if cfg.State.RobotID != 7 {
		t.Errorf("state.robot_id = %d, want 7", cfg.State.RobotID)
	}
	// Untouched fields keep their defaults.
	if cfg.Broker.JointTopic != "buriburi/robot/joint" {
		t.Errorf("joint topic default lost: %q", cfg.Broker.JointTopic)
	}
	if cfg.Log.Capacity != 20 {
		t.Errorf("log capacity default lost: %d", cfg.Log.Capacity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty broker url", "[broker]\nurl = \"\"", "broker.url"},
		{"zero robot id", "[state]\nrobot_id = 0", "state.robot_id"},
		{"bad role", "[signaling]\nrole = \"VIEWER\"", "signaling.role"},
		{"zero capacity", "[log]\ncapacity = 0", "log.capacity"},
		{"zero pose interval", "[pose]\ninterval_ms = 0", "pose.interval_ms"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error %q does not mention %q", err, c.want)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := validate(Default()); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}
