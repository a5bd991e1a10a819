// Package mailer defines the outbound email contract used by the complaint services.
package mailer

import (
	"context"
	"fmt"
)

// AssignmentNotice tells an authority member which complaint they now own
type AssignmentNotice struct {
	To           string
	AssigneeName string
	ComplaintID  int
	Type         string
	Urgency      string
	Address      string
}

// Subject is the email subject line
func (n AssignmentNotice) Subject() string {
	return fmt.Sprintf("Complaint #%d assigned to you", n.ComplaintID)
}

// Mailer delivers assignment notices. Implementations must treat an empty To as a no-op.
type Mailer interface {
	SendAssignmentNotice(ctx context.Context, notice AssignmentNotice) error
	IsEnabled() bool
}
