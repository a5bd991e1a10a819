package services

import (
	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"
)

// TransitionPolicy decides which status changes a complaint may go through.
// An empty policy allows every change. Writing the current status again is always allowed.
type TransitionPolicy struct {
	allowed map[models.ComplaintStatus]map[models.ComplaintStatus]bool
}

// NewTransitionPolicy builds a policy from the lifecycle.transitions config section
func NewTransitionPolicy(transitions map[string][]string) (*TransitionPolicy, error) {
	policy := &TransitionPolicy{allowed: make(map[models.ComplaintStatus]map[models.ComplaintStatus]bool)}

	for from, targets := range transitions {
		fromStatus, err := models.ParseComplaintStatus(from)
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "invalid transition source %q", from)
		}

		next := make(map[models.ComplaintStatus]bool, len(targets))
		for _, to := range targets {
			toStatus, err := models.ParseComplaintStatus(to)
			if err != nil {
				return nil, contextutils.WrapErrorf(err, "invalid transition target %q for %q", to, from)
			}
			next[toStatus] = true
		}
		policy.allowed[fromStatus] = next
	}

	return policy, nil
}

// PermissivePolicy allows any status to follow any other
func PermissivePolicy() *TransitionPolicy {
	return &TransitionPolicy{}
}

// IsPermissive reports whether the policy places no restriction on transitions
func (p *TransitionPolicy) IsPermissive() bool {
	return p == nil || len(p.allowed) == 0
}

// Allows reports whether a complaint in status from may move to status to.
// Once any transition is configured, a source status without an entry allows no changes.
func (p *TransitionPolicy) Allows(from, to models.ComplaintStatus) bool {
	if from == to || p.IsPermissive() {
		return true
	}
	return p.allowed[from][to]
}

// Check returns ErrInvalidTransition when the change is not allowed
func (p *TransitionPolicy) Check(from, to models.ComplaintStatus) error {
	if p.Allows(from, to) {
		return nil
	}
	return contextutils.WrapErrorf(contextutils.ErrInvalidTransition, "cannot move complaint from %s to %s", from, to)
}
