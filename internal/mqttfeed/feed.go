// Package mqttfeed subscribes to the robot's MQTT topics and folds every
// message into the telemetry store: joint frames replace arm and backbone
// posture, command events feed the operator log. The feed is resilient by
// design — malformed payloads are dropped, broker loss flips a health flag
// and retries on a fixed delay, and the console stays usable throughout.
package mqttfeed

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/doyun-lab/robotview/internal/config"
	"github.com/doyun-lab/robotview/internal/eventlog"
	"github.com/doyun-lab/robotview/internal/kinematics"
	"github.com/doyun-lab/robotview/internal/store"
	"github.com/doyun-lab/robotview/internal/telemetry"
)

// Broadcaster fans console events out to connected render clients.
// Satisfied by *ws.Hub; nil disables broadcasting.
type Broadcaster interface {
	BroadcastJSON(v any)
}

// Options holds everything the feed needs from the caller.
type Options struct {
	Cfg    config.BrokerConfig
	Store  *store.Store
	Log    *eventlog.Log
	Logger *log.Logger
	Hub    Broadcaster
}

// Feed is the telemetry channel. Create with New, start with Connect, stop
// with Close.
type Feed struct {
	cfg    config.BrokerConfig
	store  *store.Store
	events *eventlog.Log
	log    *log.Logger
	hub    Broadcaster

	client mqtt.Client

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a feed. It does not touch the network until Connect.
func New(opts Options) *Feed {
	return &Feed{
		cfg:    opts.Cfg,
		store:  opts.Store,
		events: opts.Log,
		log:    opts.Logger,
		hub:    opts.Hub,
		done:   make(chan struct{}),
	}
}

// Connect dials the broker and keeps retrying on a fixed delay until it
// succeeds or Close is called. It returns immediately; connection progress
// is reported through the store's broker status. Between failed attempts
// the status reads disconnected, not connecting.
func (f *Feed) Connect() {
	clientID := fmt.Sprintf("%s-%s", f.cfg.ClientID, uuid.NewString()[:8])
	retry := time.Duration(f.cfg.ReconnectSeconds) * time.Second

	// Initial establishment is retried by connectLoop below so the broker
	// status is accurate per attempt; paho's auto-reconnect only takes over
	// once a connection has existed.
	opts := mqtt.NewClientOptions().
		AddBroker(f.cfg.URL).
		SetClientID(clientID).
		SetUsername(f.cfg.Username).
		SetPassword(f.cfg.Password).
		SetKeepAlive(time.Duration(f.cfg.KeepaliveSeconds) * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(retry).
		SetOnConnectHandler(f.onConnect).
		SetConnectionLostHandler(f.onConnectionLost).
		SetReconnectingHandler(f.onReconnecting)

	f.client = mqtt.NewClient(opts)
	go f.connectLoop(retry)
}

// connectLoop attempts the initial broker connection until one succeeds or
// the feed is closed.
func (f *Feed) connectLoop(retry time.Duration) {
	for {
		f.store.SetBroker(store.ConnConnecting)

		token := f.client.Connect()
		token.Wait()
		err := token.Error()
		if err == nil {
			return // onConnect reports the connected status
		}

		f.log.Printf("mqtt connect failed: %v; retrying in %s", err, retry)
		f.store.SetBroker(store.ConnDisconnected)
		f.broadcastHealth("disconnected")

		select {
		case <-f.done:
			return
		case <-time.After(retry):
		}
	}
}

// Close tears the broker connection down. Last-known angles stay in the
// store; only the connected flags drop.
func (f *Feed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
	if f.client != nil {
		f.client.Disconnect(250)
	}
	f.store.SetBroker(store.ConnDisconnected)
}

func (f *Feed) onConnect(c mqtt.Client) {
	f.log.Printf("mqtt connected to %s", f.cfg.URL)
	f.store.SetBroker(store.ConnConnected)
	f.broadcastHealth("connected")

	if token := c.Subscribe(f.cfg.JointTopic, 0, f.onMessage); token.Wait() && token.Error() != nil {
		f.log.Printf("subscribe %s: %v", f.cfg.JointTopic, token.Error())
	}
	if token := c.Subscribe(f.cfg.EventTopic, 0, f.onMessage); token.Wait() && token.Error() != nil {
		f.log.Printf("subscribe %s: %v", f.cfg.EventTopic, token.Error())
	}

	// Liveness announcement, fire-and-forget.
	if b, err := json.Marshal(telemetry.NewHello()); err == nil {
		c.Publish(f.cfg.HelloTopic, 0, false, b)
	}
}

func (f *Feed) onConnectionLost(_ mqtt.Client, err error) {
	f.log.Printf("mqtt connection lost: %v", err)
	f.store.SetBroker(store.ConnDisconnected)
	f.broadcastHealth("disconnected")
}

func (f *Feed) onReconnecting(_ mqtt.Client, _ *mqtt.ClientOptions) {
	f.store.SetBroker(store.ConnConnecting)
	f.broadcastHealth("connecting")
}

func (f *Feed) onMessage(_ mqtt.Client, msg mqtt.Message) {
	f.handleMessage(msg.Topic(), msg.Payload())
}

// handleMessage routes one inbound payload. Parse failures are logged and
// dropped; the channel never propagates them.
func (f *Feed) handleMessage(topic string, payload []byte) {
	if topic == f.cfg.EventTopic {
		f.handleEvent(payload)
		return
	}
	f.handleJointFrame(payload)
}

// commandEnvelope matches the event topic's payload. The robot sends ts as
// either a string or an epoch number depending on firmware.
type commandEnvelope struct {
	Type    string            `json:"type"`
	TS      json.RawMessage   `json:"ts"`
	RobotID telemetry.RobotID `json:"robot_id"`
	Command string            `json:"command"`
}

func (f *Feed) handleEvent(payload []byte) {
	var ev commandEnvelope
	if err := json.Unmarshal(payload, &ev); err != nil {
		f.log.Printf("drop malformed event payload: %v", err)
		return
	}

	// The timeline is single-robot-scoped: only the left-arm controller
	// publishes command lifecycle events worth logging.
	if ev.RobotID != telemetry.RobotLeft {
		return
	}

	ts := rawTimestamp(ev.TS)
	if err := f.events.Append(ev.Type, ts, ev.Command); err != nil {
		f.log.Printf("append event log: %v", err)
		return
	}

	if f.hub != nil {
		entry := eventlog.NewEntry(ev.Type, ts, ev.Command)
		f.hub.BroadcastJSON(map[string]any{
			"type":      "robot_event",
			"ts":        telemetry.NowTS(),
			"kind":      entry.Kind,
			"label":     entry.Kind.Label(),
			"command":   entry.Command,
			"utterance": entry.Utterance,
		})
	}
}

func (f *Feed) handleJointFrame(payload []byte) {
	var frame telemetry.JointFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		f.log.Printf("drop malformed joint payload: %v", err)
		return
	}
	if frame.Type != "joint_state" || frame.Angles == nil {
		return
	}

	now := time.Now()
	switch frame.RobotID {
	case telemetry.RobotLeft, telemetry.RobotRight:
		status := store.RobotStatus{
			Joint0:      jointAngle(frame.Angles, 0),
			Joint1:      jointAngle(frame.Angles, 1),
			Joint2:      jointAngle(frame.Angles, 2),
			Joint3:      jointAngle(frame.Angles, 3),
			Joint4:      jointAngle(frame.Angles, 4),
			Joint5:      jointAngle(frame.Angles, 5),
			Gripper:     gripperAngle(frame.Angles, 6),
			Connected:   true,
			LastUpdated: now,
		}
		f.store.SetArm(frame.RobotID == telemetry.RobotLeft, status)

	case telemetry.RobotBackbone:
		f.store.SetBackbone(store.BackboneStatus{
			NeckYaw:     jointAngle(frame.Angles, 0),
			NeckPitch:   jointAngle(frame.Angles, 1),
			WaistYaw:    jointAngle(frame.Angles, 2),
			LastUpdated: now,
		})

	default:
		// Unknown robot identity; not ours to interpret.
	}
}

// jointAngle reads one joint from an angle sequence, defaulting to the 90°
// neutral when the entry is missing, and clamping to the servo range.
func jointAngle(angles []float64, i int) float64 {
	if i >= len(angles) {
		return 90
	}
	return kinematics.ClampAngle(angles[i])
}

// gripperAngle is like jointAngle but defaults to 0° (closed).
func gripperAngle(angles []float64, i int) float64 {
	if i >= len(angles) {
		return 0
	}
	return kinematics.ClampAngle(angles[i])
}

// rawTimestamp renders the ts field as a string whether the robot sent a
// JSON string or a bare number.
func rawTimestamp(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return string(raw)
}

func (f *Feed) broadcastHealth(status string) {
	if f.hub == nil {
		return
	}
	f.hub.BroadcastJSON(map[string]any{
		"type":   "broker_status",
		"ts":     telemetry.NowTS(),
		"status": status,
	})
}
