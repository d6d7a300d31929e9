package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitOnlyFromDraft(t *testing.T) {
	user := uuid.New()

	s := &Stamp{Status: StatusDraft}
	require.NoError(t, Submit(s, user))
	assert.Equal(t, StatusPending, s.Status)
	assert.Equal(t, user, *s.SubmittedBy)

	for _, status := range []string{StatusPending, StatusApproved, StatusRejected} {
		s := &Stamp{Status: status}
		assert.Error(t, Submit(s, user))
		assert.Equal(t, status, s.Status)
	}
}

func TestApproveStampsReviewer(t *testing.T) {
	approver := uuid.New()
	now := time.Now()

	s := &Stamp{Status: StatusPending}
	require.NoError(t, Approve(s, approver, now))
	assert.Equal(t, StatusApproved, s.Status)
	assert.Equal(t, approver, *s.ApprovedBy)
	assert.Equal(t, now, *s.ApprovedAt)

	// Second approval must fail
	assert.Error(t, Approve(s, approver, now))
}

func TestRejectRequiresReason(t *testing.T) {
	reviewer := uuid.New()
	now := time.Now()

	s := &Stamp{Status: StatusPending}
	err := Reject(s, reviewer, now, "")
	require.Error(t, err)
	// No state change on refused rejection
	assert.Equal(t, StatusPending, s.Status)
	assert.Nil(t, s.ApprovedBy)
	assert.Empty(t, s.RejectionReason)

	require.NoError(t, Reject(s, reviewer, now, "missing supplier quote"))
	assert.Equal(t, StatusRejected, s.Status)
	assert.Equal(t, "missing supplier quote", s.RejectionReason)
}

func TestResubmitClearsRejectionMetadata(t *testing.T) {
	submitter := uuid.New()
	reviewer := uuid.New()
	now := time.Now()

	s := &Stamp{Status: StatusPending, SubmittedBy: &submitter}
	require.NoError(t, Reject(s, reviewer, now, "wrong amount"))

	// Someone else cannot resubmit
	assert.Error(t, Resubmit(s, reviewer))
	assert.Equal(t, StatusRejected, s.Status)

	require.NoError(t, Resubmit(s, submitter))
	assert.Equal(t, StatusPending, s.Status)
	assert.Nil(t, s.ApprovedBy)
	assert.Nil(t, s.ApprovedAt)
	assert.Empty(t, s.RejectionReason)
}

func TestResubmitOnlyFromRejected(t *testing.T) {
	submitter := uuid.New()
	for _, status := range []string{StatusDraft, StatusPending, StatusApproved} {
		s := &Stamp{Status: status, SubmittedBy: &submitter}
		assert.Error(t, Resubmit(s, submitter))
	}
}

func TestEditable(t *testing.T) {
	assert.True(t, Editable(StatusDraft))
	assert.True(t, Editable(StatusPending))
	assert.False(t, Editable(StatusApproved))
	assert.False(t, Editable(StatusRejected))
}
