// Package config handles loading, defaulting, and validation of the
// robotview TOML configuration file. Every section maps to a typed struct so
// the rest of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Server    ServerConfig    `toml:"server"    json:"server"`
	Broker    BrokerConfig    `toml:"broker"    json:"broker"`
	State     StateConfig     `toml:"state"     json:"state"`
	Signaling SignalingConfig `toml:"signaling" json:"signaling"`
	Log       LogConfig       `toml:"log"       json:"log"`
	Pose      PoseConfig      `toml:"pose"      json:"pose"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// BrokerConfig describes the MQTT broker carrying joint telemetry and
// command events.
type BrokerConfig struct {
	URL              string `toml:"url"               json:"url"`
	Username         string `toml:"username"          json:"username"`
	Password         string `toml:"password"          json:"-"`
	ClientID         string `toml:"client_id"         json:"client_id"`
	JointTopic       string `toml:"joint_topic"       json:"joint_topic"`
	EventTopic       string `toml:"event_topic"       json:"event_topic"`
	HelloTopic       string `toml:"hello_topic"       json:"hello_topic"`
	KeepaliveSeconds int    `toml:"keepalive_seconds" json:"keepalive_seconds"`
	ReconnectSeconds int    `toml:"reconnect_seconds" json:"reconnect_seconds"`
}

// StateConfig describes the backend's STOMP-over-WebSocket state feed.
type StateConfig struct {
	URL              string `toml:"url"               json:"url"`
	RobotID          int    `toml:"robot_id"          json:"robot_id"`
	ReconnectSeconds int    `toml:"reconnect_seconds" json:"reconnect_seconds"`
}

// SignalingConfig describes the live-view credential endpoint and the
// session identity used when joining.
type SignalingConfig struct {
	BaseURL       string `toml:"base_url"       json:"base_url"`
	ChannelID     string `toml:"channel_id"     json:"channel_id"`
	ParticipantID string `toml:"participant_id" json:"participant_id"`
	Role          string `toml:"role"           json:"role"`
}

type LogConfig struct {
	Path     string `toml:"path"     json:"path"`
	Capacity int    `toml:"capacity" json:"capacity"`
}

// PoseConfig controls the renderer-facing pose broadcast.
type PoseConfig struct {
	IntervalMillis int `toml:"interval_ms" json:"interval_ms"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "0.0.0.0:8080",
		},
		Broker: BrokerConfig{
			URL:              "tcp://127.0.0.1:1883",
			ClientID:         "robotview",
			JointTopic:       "buriburi/robot/joint",
			EventTopic:       "buriburi/robot/event",
			HelloTopic:       "buriburi/robot/rx",
			KeepaliveSeconds: 30,
			ReconnectSeconds: 2,
		},
		State: StateConfig{
			URL:              "ws://127.0.0.1:8081/ws-stomp",
			RobotID:          1,
			ReconnectSeconds: 3,
		},
		Signaling: SignalingConfig{
			BaseURL:       "http://127.0.0.1:8082",
			ChannelID:     "robot-1",
			ParticipantID: "console",
			Role:          "SUBSCRIBER",
		},
		Log: LogConfig{
			Path:     "/var/lib/robotview/events.db",
			Capacity: 20,
		},
		Pose: PoseConfig{
			IntervalMillis: 50,
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Broker.URL == "" {
		return errors.New("broker.url must not be empty")
	}
	if cfg.Broker.JointTopic == "" || cfg.Broker.EventTopic == "" {
		return errors.New("broker.joint_topic and broker.event_topic must not be empty")
	}
	if cfg.Broker.KeepaliveSeconds <= 0 {
		return errors.New("broker.keepalive_seconds must be > 0")
	}
	if cfg.Broker.ReconnectSeconds <= 0 {
		return errors.New("broker.reconnect_seconds must be > 0")
	}
	if cfg.State.URL == "" {
		return errors.New("state.url must not be empty")
	}
	if cfg.State.RobotID <= 0 {
		return errors.New("state.robot_id must be > 0")
	}
	if cfg.State.ReconnectSeconds <= 0 {
		return errors.New("state.reconnect_seconds must be > 0")
	}
	if cfg.Signaling.Role != "SUBSCRIBER" && cfg.Signaling.Role != "PUBLISHER" {
		return errors.New("signaling.role must be SUBSCRIBER or PUBLISHER")
	}
	if cfg.Log.Path == "" {
		return errors.New("log.path must not be empty")
	}
	if cfg.Log.Capacity <= 0 {
		return errors.New("log.capacity must be > 0")
	}
	if cfg.Pose.IntervalMillis <= 0 {
		return errors.New("pose.interval_ms must be > 0")
	}
	return nil
}
