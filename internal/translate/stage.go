package translate

import "time"

// Stage is a step of the translation pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageExtracting
	StageBuilding
	StageValidating
	StageSerializing
	StageWriting
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageIdle:        "idle",
	StageExtracting:  "extracting",
	StageBuilding:    "building",
	StageValidating:  "validating",
	StageSerializing: "serializing",
	StageWriting:     "writing",
	StageDone:        "done",
	StageFailed:      "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Terminal reports whether no further transitions follow s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Status is a stage transition of one request.
type Status struct {
	Input string
	Stage Stage
	// Reason explains a failed transition.
	Reason string
	Time   time.Time
}
