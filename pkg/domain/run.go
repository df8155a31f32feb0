package domain

import "time"

// RunRecord is the artifact kept after a run reaches a terminal signal.
type RunRecord struct {
	ID         string    `json:"id"`
	Workflow   string    `json:"workflow"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Steps      int       `json:"steps"`
	Final      *State    `json:"final"`
}

// Fault returns the fault of the final state, if any.
func (r *RunRecord) Fault() *Fault {
	if r == nil || r.Final == nil {
		return nil
	}
	return r.Final.Fault
}
