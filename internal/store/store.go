// Package store owns the live picture of the robot: last-known joint angles
// for both arms, the backbone pose, the coarse behavioral state, and the
// health of the feeds that populate them.
//
// Each field has exactly one writer (the channel that produces it) and any
// number of readers. Writers replace whole values under the mutex, so a
// reader never observes a half-updated arm. There is deliberately no
// cross-field reconciliation: a state transition and a joint update for the
// same physical motion may land on different ticks, in either order.
package store

import (
	"sync"
	"time"
)

// RobotStatus is the last-known posture of one arm.
type RobotStatus struct {
	Joint0  float64 `json:"joint0"`
	Joint1  float64 `json:"joint1"`
	Joint2  float64 `json:"joint2"`
	Joint3  float64 `json:"joint3"`
	Joint4  float64 `json:"joint4"`
	Joint5  float64 `json:"joint5"`
	Gripper float64 `json:"gripper"`

	Connected   bool      `json:"connected"`
	LastUpdated time.Time `json:"last_updated,omitzero"`
}

// DefaultRobotStatus is the neutral pose shown before any telemetry arrives:
// every joint at 90°, gripper closed at 0°.
func DefaultRobotStatus() RobotStatus {
	return RobotStatus{
		Joint0: 90, Joint1: 90, Joint2: 90,
		Joint3: 90, Joint4: 90, Joint5: 90,
		Gripper: 0,
	}
}

// BackboneStatus is the last-known neck and waist posture.
type BackboneStatus struct {
	NeckYaw     float64   `json:"neck_yaw"`
	NeckPitch   float64   `json:"neck_pitch"`
	WaistYaw    float64   `json:"waist_yaw"`
	LastUpdated time.Time `json:"last_updated,omitzero"`
}

// DefaultBackboneStatus is the neutral backbone pose.
func DefaultBackboneStatus() BackboneStatus {
	return BackboneStatus{NeckYaw: 90, NeckPitch: 90, WaistYaw: 90}
}

// ConnectionStatus describes the telemetry broker link.
type ConnectionStatus string

const (
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnConnecting   ConnectionStatus = "connecting"
	ConnConnected    ConnectionStatus = "connected"
)

// Snapshot is a consistent copy of every store field, taken under the lock.
type Snapshot struct {
	LeftArm    RobotStatus      `json:"left_arm"`
	RightArm   RobotStatus      `json:"right_arm"`
	Backbone   BackboneStatus   `json:"backbone"`
	State      BehavioralState  `json:"state"`
	Broker     ConnectionStatus `json:"broker"`
	StateFeed  bool             `json:"state_feed_connected"`
}

// Store is the composition root's shared state. The zero value is not
// usable; call New.
type Store struct {
	mu sync.RWMutex

	leftArm  RobotStatus
	rightArm RobotStatus
	backbone BackboneStatus
	state    BehavioralState
	broker   ConnectionStatus
	stateUp  bool
}

// New returns a store holding the default neutral pose, StateIdle, and a
// disconnected broker, so the renderer always has something defined to show.
func New() *Store {
	return &Store{
		leftArm:  DefaultRobotStatus(),
		rightArm: DefaultRobotStatus(),
		backbone: DefaultBackboneStatus(),
		state:    StateIdle,
		broker:   ConnDisconnected,
	}
}

// SetArm replaces one arm's status. Written only by the telemetry channel.
func (s *Store) SetArm(left bool, status RobotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if left {
		s.leftArm = status
	} else {
		s.rightArm = status
	}
}

// SetBackbone replaces the backbone status. Written only by the telemetry
// channel.
func (s *Store) SetBackbone(status BackboneStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backbone = status
}

// SetBroker updates the broker connection status. On disconnect both arms
// are marked stale but their angles are retained, so the renderer keeps the
// last-known posture instead of snapping back to neutral.
func (s *Store) SetBroker(status ConnectionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broker = status
	if status != ConnConnected {
		s.leftArm.Connected = false
		s.rightArm.Connected = false
	}
}

// SetState replaces the behavioral state. Written only by the state channel.
func (s *Store) SetState(state BehavioralState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// SetStateFeedHealth records whether the state socket is currently up.
func (s *Store) SetStateFeedHealth(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateUp = up
}

// Snapshot returns a consistent copy of all fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		LeftArm:   s.leftArm,
		RightArm:  s.rightArm,
		Backbone:  s.backbone,
		State:     s.state,
		Broker:    s.broker,
		StateFeed: s.stateUp,
	}
}

// State returns just the current behavioral state.
func (s *Store) State() BehavioralState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
