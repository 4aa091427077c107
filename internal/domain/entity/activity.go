package entity

import (
	"fmt"
	"time"
)

// ActivityKind names a console action recorded in the activity log.
type ActivityKind string

const (
	ActivityAgentCreated    ActivityKind = "agent.created"
	ActivityAgentUpdated    ActivityKind = "agent.updated"
	ActivityAgentDeleted    ActivityKind = "agent.deleted"
	ActivityWorkflowCreated ActivityKind = "workflow.created"
	ActivityWorkflowDeleted ActivityKind = "workflow.deleted"
	ActivityWorkflowRun     ActivityKind = "workflow.run"
	ActivitySettingsSaved   ActivityKind = "settings.saved"
)

// Activity outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Activity is one entry of the local activity log.
type Activity struct {
	ID       int64        `json:"id"`
	Kind     ActivityKind `json:"kind"`
	Subject  string       `json:"subject"`
	TargetID int64        `json:"target_id,omitempty"`
	Outcome  string       `json:"outcome"`
	Detail   string       `json:"detail,omitempty"`
	At       time.Time    `json:"at"`
}

// Failed reports whether the action failed.
func (a Activity) Failed() bool {
	return a.Outcome == OutcomeFailure
}

// Title is the one-line dashboard label.
func (a Activity) Title() string {
	switch a.Kind {
	case ActivityWorkflowRun:
		return fmt.Sprintf("Workflow Execution #%d", a.TargetID)
	case ActivityAgentCreated:
		return fmt.Sprintf("Agent %q created", a.Subject)
	case ActivityAgentUpdated:
		return fmt.Sprintf("Agent %q updated", a.Subject)
	case ActivityAgentDeleted:
		return fmt.Sprintf("Agent %q deleted", a.Subject)
	case ActivityWorkflowCreated:
		return fmt.Sprintf("Workflow %q created", a.Subject)
	case ActivityWorkflowDeleted:
		return fmt.Sprintf("Workflow %q deleted", a.Subject)
	case ActivitySettingsSaved:
		return "Settings saved"
	default:
		return string(a.Kind)
	}
}

// ActivityStats aggregates the activity log for the dashboard.
type ActivityStats struct {
	TotalRuns  int
	FailedRuns int
}

// SuccessRate is the percentage of runs that succeeded, 0 when there were
// no runs.
func (s ActivityStats) SuccessRate() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return float64(s.TotalRuns-s.FailedRuns) / float64(s.TotalRuns) * 100
}
