package kinematics

import (
	"math"
	"testing"

	"github.com/doyun-lab/robotview/internal/store"
)

const eps = 1e-9

func TestJointToRotationNeutralAndMonotonic(t *testing.T) {
	if r := JointToRotation(90); math.Abs(r) > eps {
		t.Errorf("JointToRotation(90) = %v, want 0", r)
	}
	if r := JointToRotation(0); math.Abs(r+math.Pi/2) > eps {
		t.Errorf("JointToRotation(0) = %v, want -π/2", r)
	}
	if r := JointToRotation(180); math.Abs(r-math.Pi/2) > eps {
		t.Errorf("JointToRotation(180) = %v, want π/2", r)
	}

	prev := JointToRotation(0)
	for d := 1.0; d <= 180; d++ {
		cur := JointToRotation(d)
		if cur <= prev {
			t.Fatalf("mapping not monotonic at %v°: %v <= %v", d, cur, prev)
		}
		prev = cur
	}
}

func TestGripperToRotationHalfScale(t *testing.T) {
	for _, d := range []float64{0, 45, 90, 180} {
		want := d * math.Pi / 360
		if r := GripperToRotation(d); math.Abs(r-want) > eps {
			t.Errorf("GripperToRotation(%v) = %v, want %v", d, r, want)
		}
	}
}

func TestGripperCoupling(t *testing.T) {
	for _, g := range []float64{0, 30, 90, 180} {
		p := GripperPoseFor(g)

		if math.Abs(p.LeftDistal) > eps && math.Abs(math.Abs(p.LeftDistal)-math.Abs(p.LeftBase)/2) > eps {
			t.Errorf("g=%v: left distal %v is not half of base %v", g, p.LeftDistal, p.LeftBase)
		}
		if math.Abs(p.RightDistal-p.RightBase*0.5) > eps {
			t.Errorf("g=%v: right distal %v is not half of base %v", g, p.RightDistal, p.RightBase)
		}

		// Fingers spread in opposite directions, distal follows base's sign.
		if p.LeftBase > 0 || p.RightBase < 0 {
			t.Errorf("g=%v: finger signs wrong: left %v right %v", g, p.LeftBase, p.RightBase)
		}
		if math.Signbit(p.LeftDistal) != math.Signbit(p.LeftBase) && p.LeftDistal != 0 {
			t.Errorf("g=%v: left distal sign differs from base", g)
		}
	}
}

func TestArmMirroring(t *testing.T) {
	st := store.DefaultRobotStatus()
	st.Joint0 = 120

	left := ArmPoseFor(SideLeft, st)
	right := ArmPoseFor(SideRight, st)

	// right base is mapped from 180-joint0, so right = JointToRotation(60).
	if math.Abs(right.Base-JointToRotation(180-120)) > eps {
		t.Errorf("right base = %v, want %v", right.Base, JointToRotation(60))
	}
	if math.Abs(left.Base-JointToRotation(120)) > eps {
		t.Errorf("left base = %v, want %v", left.Base, JointToRotation(120))
	}
}

func TestArmSignCorrections(t *testing.T) {
	st := store.DefaultRobotStatus()
	st.Joint3 = 40
	st.Joint4 = 60

	left := ArmPoseFor(SideLeft, st)
	if math.Abs(left.Wrist1-JointToRotation(-40)) > eps {
		t.Errorf("left wrist1 = %v, want mapping of -40", left.Wrist1)
	}
	if math.Abs(left.Wrist2-JointToRotation(-60)) > eps {
		t.Errorf("left wrist2 = %v, want mapping of -60", left.Wrist2)
	}

	right := ArmPoseFor(SideRight, st)
	if math.Abs(right.Wrist1-JointToRotation(-40)) > eps {
		t.Errorf("right wrist1 = %v, want mapping of -40", right.Wrist1)
	}
	// Right arm leaves joint 4 untouched.
	if math.Abs(right.Wrist2-JointToRotation(60)) > eps {
		t.Errorf("right wrist2 = %v, want mapping of 60", right.Wrist2)
	}
}

func TestBackboneDamping(t *testing.T) {
	bb := store.BackboneStatus{NeckYaw: 180, NeckPitch: 90, WaistYaw: 0}
	p := BackbonePoseFor(bb)

	if math.Abs(p.NeckYaw-math.Pi/4) > eps {
		t.Errorf("neck yaw = %v, want π/4 (half of π/2)", p.NeckYaw)
	}
	if math.Abs(p.NeckPitch) > eps {
		t.Errorf("neck pitch = %v, want 0 at neutral", p.NeckPitch)
	}
	if math.Abs(p.WaistYaw+math.Pi/4) > eps {
		t.Errorf("waist yaw = %v, want -π/4", p.WaistYaw)
	}
}

func TestClampAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-10, 0}, {0, 0}, {90, 90}, {180, 180}, {270, 180},
	}
	for _, c := range cases {
		if got := ClampAngle(c.in); got != c.want {
			t.Errorf("ClampAngle(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestPoseForNeutralSnapshot(t *testing.T) {
	p := PoseFor(store.New().Snapshot())

	for name, r := range map[string]float64{
		"left base":      p.LeftArm.Base,
		"left shoulder":  p.LeftArm.Shoulder,
		"right shoulder": p.RightArm.Shoulder,
		"neck yaw":       p.Backbone.NeckYaw,
	} {
		if math.Abs(r) > eps {
			t.Errorf("%s = %v, want 0 for the neutral pose", name, r)
		}
	}
	if p.LeftArm.Gripper != (GripperPose{}) {
		t.Errorf("neutral gripper pose = %+v, want zeros", p.LeftArm.Gripper)
	}
}
