package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingMailer struct {
	notices []AssignmentNotice
	enabled bool
}

func (m *recordingMailer) SendAssignmentNotice(_ context.Context, notice AssignmentNotice) error {
	if notice.To == "" {
		return nil
	}
	m.notices = append(m.notices, notice)
	return nil
}

func (m *recordingMailer) IsEnabled() bool { return m.enabled }

func TestAssignmentNotice_Subject(t *testing.T) {
	assert.Equal(t, "Complaint #42 assigned to you", AssignmentNotice{ComplaintID: 42}.Subject())
}

func TestMailer_EmptyRecipientIsNoop(t *testing.T) {
	var m Mailer = &recordingMailer{enabled: true}

	assert.NoError(t, m.SendAssignmentNotice(context.Background(), AssignmentNotice{ComplaintID: 1}))
	assert.NoError(t, m.SendAssignmentNotice(context.Background(), AssignmentNotice{To: "officer@example.com", ComplaintID: 2}))

	assert.Len(t, m.(*recordingMailer).notices, 1)
	assert.True(t, m.IsEnabled())
}
