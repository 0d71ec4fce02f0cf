package model

// RunState represents the state of one download run
type RunState string

const (
	// RunStateIdle means the run was created but not started
	RunStateIdle RunState = "Idle"

	// RunStateRunning means the external process is active
	RunStateRunning RunState = "Running"

	// RunStateCompleted means the process exited naturally
	RunStateCompleted RunState = "Completed"

	// RunStateFailed means the process could not start or reported an error
	RunStateFailed RunState = "Failed"

	// RunStateStopped means the run was stopped by the caller
	RunStateStopped RunState = "Stopped"
)

// String returns the string representation of RunState
func (rs RunState) String() string {
	return string(rs)
}

// IsActive returns true if a process may be running in this state
func (rs RunState) IsActive() bool {
	return rs == RunStateRunning
}

// IsFinished returns true if the state is terminal (completed, failed, or stopped)
func (rs RunState) IsFinished() bool {
	return rs == RunStateCompleted || rs == RunStateFailed || rs == RunStateStopped
}
