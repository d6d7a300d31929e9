package workflow

import "tradeflow/internal/model"

// Action names the workflow operations gated by role.
type Action string

const (
	ActionSubmit   Action = "SUBMIT"
	ActionApprove  Action = "APPROVE"
	ActionReject   Action = "REJECT"
	ActionResubmit Action = "RESUBMIT"
	ActionDelete   Action = "DELETE"
)

// Allowed is the single authorization decision point for workflow actions.
// Every service consults it instead of comparing role strings inline.
// Ownership checks (resubmit is submitter-only) happen in the state machine.
func Allowed(role string, action Action) bool {
	switch action {
	case ActionApprove, ActionReject:
		return role == model.RoleAdmin || role == model.RoleManager
	case ActionDelete:
		return role == model.RoleAdmin || role == model.RoleManager
	case ActionSubmit, ActionResubmit:
		return role == model.RoleAdmin || role == model.RoleManager || role == model.RoleStaff
	default:
		return false
	}
}
