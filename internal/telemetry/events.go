// Package telemetry defines the typed structs that flow over the robot's
// MQTT topics, the backend's state socket, and the console WebSocket. These
// types document the wire schema; hub broadcasts still use map[string]any in
// a few places where the payload is assembled ad hoc.
package telemetry

import "time"

// RobotID identifies which part of the robot a frame belongs to.
type RobotID string

const (
	RobotLeft     RobotID = "robot_left"
	RobotRight    RobotID = "robot_right"
	RobotBackbone RobotID = "robot_backbone"
)

// JointFrame is one telemetry message on the joint topic. Arms carry seven
// angles (six joints plus the gripper), the backbone carries three
// (neck yaw, neck pitch, waist yaw).
type JointFrame struct {
	Type    string    `json:"type"` // always "joint_state"
	RobotID RobotID   `json:"robot_id"`
	Angles  []float64 `json:"angles"`
}

// CommandEvent is one discrete message on the event topic: the robot
// announcing the start, progress, or completion of a command.
type CommandEvent struct {
	Type    string  `json:"type"` // ack, progress, result, error
	TS      string  `json:"ts"`
	RobotID RobotID `json:"robot_id"`
	Command string  `json:"command"`
}

// Hello is published once per broker connect so the robot side can tell a
// console came online. Fire-and-forget; nothing acknowledges it.
type Hello struct {
	Type      string `json:"type"` // always "hello"
	Agent     string `json:"agent"`
	Timestamp string `json:"timestamp"`
}

// NewHello builds the liveness announcement with the current UTC time.
func NewHello() Hello {
	return Hello{
		Type:      "hello",
		Agent:     "frontend",
		Timestamp: NowTS(),
	}
}

// StatusMessage is the payload delivered on the state socket's per-robot
// destination.
type StatusMessage struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching
// the timestamp format used across all console events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
