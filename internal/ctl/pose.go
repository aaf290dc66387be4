package ctl

import (
	"fmt"
	"strings"
)

type armPoseJSON struct {
	Base     float64 `json:"base"`
	Shoulder float64 `json:"shoulder"`
	Elbow    float64 `json:"elbow"`
	Wrist1   float64 `json:"wrist1"`
	Wrist2   float64 `json:"wrist2"`
	Wrist3   float64 `json:"wrist3"`
	Gripper  struct {
		LeftBase  float64 `json:"left_base"`
		RightBase float64 `json:"right_base"`
	} `json:"gripper"`
}

type poseResponse struct {
	Pose struct {
		LeftArm  armPoseJSON `json:"left_arm"`
		RightArm armPoseJSON `json:"right_arm"`
		Backbone struct {
			NeckYaw   float64 `json:"neck_yaw"`
			NeckPitch float64 `json:"neck_pitch"`
			WaistYaw  float64 `json:"waist_yaw"`
		} `json:"backbone"`
	} `json:"pose"`
	Snapshot struct {
		LeftArm  map[string]any `json:"left_arm"`
		RightArm map[string]any `json:"right_arm"`
	} `json:"snapshot"`
}

// Pose fetches the renderer-ready pose and prints it as a table of radians,
// or as raw JSON when jsonOut is set.
func Pose(baseURL string, jsonOut bool) error {
	var p poseResponse
	if err := getJSON(baseURL, "/api/pose", &p); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(p)
	}

	fmt.Println()
	fmt.Println(header("  POSE (radians)"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 52)))
	fmt.Printf("  %-10s %8s %8s\n", "", colorize(dim, "left"), colorize(dim, "right"))

	l, r := p.Pose.LeftArm, p.Pose.RightArm
	rows := []struct {
		name        string
		left, right float64
	}{
		{"base", l.Base, r.Base},
		{"shoulder", l.Shoulder, r.Shoulder},
		{"elbow", l.Elbow, r.Elbow},
		{"wrist1", l.Wrist1, r.Wrist1},
		{"wrist2", l.Wrist2, r.Wrist2},
		{"wrist3", l.Wrist3, r.Wrist3},
		{"gripper", l.Gripper.RightBase, r.Gripper.RightBase},
	}
	for _, row := range rows {
		fmt.Printf("  %-10s %8.3f %8.3f\n", colorize(dim, row.name+":"), row.left, row.right)
	}

	b := p.Pose.Backbone
	fmt.Println()
	fmt.Printf("  %-10s yaw %.3f, pitch %.3f\n", colorize(dim, "neck:"), b.NeckYaw, b.NeckPitch)
	fmt.Printf("  %-10s yaw %.3f\n", colorize(dim, "waist:"), b.WaistYaw)
	fmt.Println()

	return nil
}

// State fetches the behavioral state and prints it with its utterance.
func State(baseURL string) error {
	var s struct {
		State     string `json:"state"`
		Utterance string `json:"utterance"`
	}
	if err := getJSON(baseURL, "/api/state", &s); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", colorize(dim, "State:"), colorize(stateColor(s.State), s.State))
	if s.Utterance != "" {
		fmt.Printf("  %s %s\n", colorize(dim, "Says: "), s.Utterance)
	}
	fmt.Println()
	return nil
}
