package status

import "time"

// CyclePhase represents the phase of the most recent reconciliation cycle
type CyclePhase string

const (
	// CyclePhaseRunning means a cycle is currently in progress
	CyclePhaseRunning CyclePhase = "Running"

	// CyclePhaseComplete means every operation of the cycle succeeded
	CyclePhaseComplete CyclePhase = "Complete"

	// CyclePhasePartial means the cycle finished but some operations failed
	CyclePhasePartial CyclePhase = "Partial"

	// CyclePhaseFailed means the cycle could not be planned
	CyclePhaseFailed CyclePhase = "Failed"
)

// CycleStatus summarizes the most recent reconciliation cycle run by this process
type CycleStatus struct {
	// Phase is the outcome of the cycle
	Phase CyclePhase `json:"phase" yaml:"phase"`

	// Message provides additional information about the cycle
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// StartedAt is when the cycle started
	StartedAt *time.Time `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`

	// FinishedAt is when the cycle finished
	FinishedAt *time.Time `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`

	// Created, Deleted and Updated count the ids planned for each action
	Created int `json:"created" yaml:"created"`
	Deleted int `json:"deleted" yaml:"deleted"`
	Updated int `json:"updated" yaml:"updated"`

	// Failed counts the ids whose operations did not all succeed
	Failed int `json:"failed" yaml:"failed"`

	// LeaderChanges counts how many times this process became leader
	LeaderChanges int `json:"leaderChanges" yaml:"leaderChanges"`
}
