package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradeflow/internal/model"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		role   string
		action Action
		want   bool
	}{
		{model.RoleAdmin, ActionApprove, true},
		{model.RoleManager, ActionApprove, true},
		{model.RoleStaff, ActionApprove, false},
		{model.RoleStaff, ActionReject, false},
		{model.RoleManager, ActionReject, true},
		{model.RoleStaff, ActionSubmit, true},
		{model.RoleStaff, ActionResubmit, true},
		{model.RoleStaff, ActionDelete, false},
		{model.RoleAdmin, ActionDelete, true},
		{"", ActionApprove, false},
		{"auditor", ActionSubmit, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Allowed(tt.role, tt.action),
			"role=%s action=%s", tt.role, tt.action)
	}
}
