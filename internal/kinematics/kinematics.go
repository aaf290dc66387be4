// Package kinematics converts raw servo degrees into renderer-ready
// rotations. Servos report 0–180 with 90 as the neutral pose; the renderer
// wants radians with 0 as neutral. All functions are pure.
//
// The left and right arms are opposite-handed builds of the same arm, so a
// fixed set of sign corrections is applied before mapping: the left arm
// negates joints 3 and 4, the right arm negates joint 3 and mirrors its base
// rotation as 180−joint0. The gripper is a two-link finger pair where each
// distal link follows its proximal link at half rate.
package kinematics

import (
	"math"

	"github.com/doyun-lab/robotview/internal/store"
)

// fingerCoupling is the fixed ratio between a finger's distal and proximal
// link rotations. A property of the linkage, not of the input.
const fingerCoupling = 0.5

// backboneDamping halves the neck and waist travel so the torso model moves
// within its mechanical range.
const backboneDamping = 0.5

// Side selects which arm's correction set to apply.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// JointToRotation maps servo degrees to radians with 90° as zero. Applied
// independently per joint.
func JointToRotation(deg float64) float64 {
	return (deg - 90) * math.Pi / 180
}

// GripperToRotation maps gripper degrees to radians at half the standard
// scale: the 0°–180° servo range spans a quarter turn of finger travel
// (0 = fingers straight, 180 = fully spread).
func GripperToRotation(deg float64) float64 {
	return deg * math.Pi / 360
}

// GripperPose holds the four finger-segment rotations derived from one
// gripper angle. The two fingers spread in opposite directions; each distal
// segment follows its base at the coupling ratio with matching sign.
type GripperPose struct {
	LeftBase    float64 `json:"left_base"`
	LeftDistal  float64 `json:"left_distal"`
	RightBase   float64 `json:"right_base"`
	RightDistal float64 `json:"right_distal"`
}

// GripperPoseFor computes both fingers' segment rotations for a gripper
// angle in degrees.
func GripperPoseFor(deg float64) GripperPose {
	base := GripperToRotation(deg)
	return GripperPose{
		LeftBase:    -base,
		LeftDistal:  -base * fingerCoupling,
		RightBase:   base,
		RightDistal: base * fingerCoupling,
	}
}

// ArmPose is one arm's renderer-ready joint rotations in radians.
type ArmPose struct {
	Base     float64     `json:"base"`   // joint 0, rotates about the shoulder axis
	Shoulder float64     `json:"shoulder"` // joint 1
	Elbow    float64     `json:"elbow"`    // joint 2
	Wrist1   float64     `json:"wrist1"`   // joint 3
	Wrist2   float64     `json:"wrist2"`   // joint 4
	Wrist3   float64     `json:"wrist3"`   // joint 5
	Gripper  GripperPose `json:"gripper"`
}

// ArmPoseFor applies the per-side corrections to a raw arm status and maps
// every joint to radians.
func ArmPoseFor(side Side, st store.RobotStatus) ArmPose {
	j0, j3, j4 := st.Joint0, st.Joint3, st.Joint4
	switch side {
	case SideLeft:
		j3 = -j3
		j4 = -j4
	case SideRight:
		j0 = 180 - j0
		j3 = -j3
	}
	return ArmPose{
		Base:     JointToRotation(j0),
		Shoulder: JointToRotation(st.Joint1),
		Elbow:    JointToRotation(st.Joint2),
		Wrist1:   JointToRotation(j3),
		Wrist2:   JointToRotation(j4),
		Wrist3:   JointToRotation(st.Joint5),
		Gripper:  GripperPoseFor(st.Gripper),
	}
}

// BackbonePose is the neck and waist rotations in radians, damped to the
// torso's mechanical range.
type BackbonePose struct {
	NeckYaw   float64 `json:"neck_yaw"`
	NeckPitch float64 `json:"neck_pitch"`
	WaistYaw  float64 `json:"waist_yaw"`
}

// BackbonePoseFor maps the backbone status to renderer rotations.
func BackbonePoseFor(st store.BackboneStatus) BackbonePose {
	return BackbonePose{
		NeckYaw:   JointToRotation(st.NeckYaw) * backboneDamping,
		NeckPitch: JointToRotation(st.NeckPitch) * backboneDamping,
		WaistYaw:  JointToRotation(st.WaistYaw) * backboneDamping,
	}
}

// Pose is the complete renderer-ready picture assembled from a store
// snapshot.
type Pose struct {
	LeftArm  ArmPose      `json:"left_arm"`
	RightArm ArmPose      `json:"right_arm"`
	Backbone BackbonePose `json:"backbone"`
}

// PoseFor assembles the full pose from a snapshot.
func PoseFor(snap store.Snapshot) Pose {
	return Pose{
		LeftArm:  ArmPoseFor(SideLeft, snap.LeftArm),
		RightArm: ArmPoseFor(SideRight, snap.RightArm),
		Backbone: BackbonePoseFor(snap.Backbone),
	}
}

// ClampAngle bounds a servo reading to the physical 0–180 range. Telemetry
// normally arrives in range; this guards against glitched frames.
func ClampAngle(deg float64) float64 {
	if deg < 0 {
		return 0
	}
	if deg > 180 {
		return 180
	}
	return deg
}
