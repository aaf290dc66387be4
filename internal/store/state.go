package store

import "strings"

// BehavioralState is the coarse named activity the robot reports, distinct
// from raw joint angles. The set is closed: anything the backend sends that
// is not listed here becomes StateUnknown.
type BehavioralState string

const (
	StateIdle        BehavioralState = "IDLE"
	StateHeart       BehavioralState = "HEART"
	StateHug         BehavioralState = "HUG"
	StateHi          BehavioralState = "HI"
	StateWarmup      BehavioralState = "WARMUP"
	StateRock        BehavioralState = "ROCK"
	StateScissors    BehavioralState = "SCISSORS"
	StatePaper       BehavioralState = "PAPER"
	StateGoodMorning BehavioralState = "GOOD_MORNING"
	StateGoodNight   BehavioralState = "GOOD_NIGHT"
	StateAteAll      BehavioralState = "ATE_ALL"
	StateHungry      BehavioralState = "HUNGRY"
	StateSetJoint    BehavioralState = "SET_JOINT"
	StateUnknown     BehavioralState = "UNKNOWN"
)

var knownStates = map[BehavioralState]struct{}{
	StateIdle: {}, StateHeart: {}, StateHug: {}, StateHi: {},
	StateWarmup: {}, StateRock: {}, StateScissors: {}, StatePaper: {},
	StateGoodMorning: {}, StateGoodNight: {}, StateAteAll: {},
	StateHungry: {}, StateSetJoint: {}, StateUnknown: {},
}

// ParseBehavioralState case-normalizes a status string from the backend and
// maps it into the closed enum. Unrecognized values yield StateUnknown,
// never an error: a new robot firmware must not crash an old console.
func ParseBehavioralState(status string) BehavioralState {
	s := BehavioralState(strings.ToUpper(strings.TrimSpace(status)))
	if _, ok := knownStates[s]; ok {
		return s
	}
	return StateUnknown
}

// stateUtterances is what the robot "says" in each state, mirroring the
// phrases it speaks out loud.
var stateUtterances = map[BehavioralState]string{
	StateIdle:        "대기중",
	StateHeart:       "사랑해",
	StateHug:         "안아줘",
	StateHi:          "안녕",
	StateWarmup:      "준비운동",
	StateRock:        "바위",
	StateScissors:    "가위",
	StatePaper:       "보",
	StateGoodMorning: "좋은 아침",
	StateGoodNight:   "잘자",
	StateAteAll:      "배불러",
	StateHungry:      "배고파",
	StateSetJoint:    "동작 설정중",
	StateUnknown:     "모르겠어",
}

// Utterance returns the spoken phrase for a state. Defined for every enum
// member; the unknown phrase covers anything else.
func (b BehavioralState) Utterance() string {
	if u, ok := stateUtterances[b]; ok {
		return u
	}
	return stateUtterances[StateUnknown]
}
