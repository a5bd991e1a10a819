package services

import (
	"testing"

	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionPolicy_PermissiveByDefault(t *testing.T) {
	for _, policy := range []*TransitionPolicy{nil, PermissivePolicy()} {
		assert.True(t, policy.IsPermissive())
		for _, from := range models.AllComplaintStatuses {
			for _, to := range models.AllComplaintStatuses {
				assert.True(t, policy.Allows(from, to), "%s -> %s", from, to)
			}
		}
	}

	empty, err := NewTransitionPolicy(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsPermissive())
}

func TestTransitionPolicy_Configured(t *testing.T) {
	policy, err := NewTransitionPolicy(map[string][]string{
		"pending":  {"verified", "assigned"},
		"verified": {"assigned"},
		"assigned": {"resolved"},
	})
	require.NoError(t, err)
	assert.False(t, policy.IsPermissive())

	assert.True(t, policy.Allows(models.StatusPending, models.StatusAssigned))
	assert.True(t, policy.Allows(models.StatusAssigned, models.StatusResolved))
	assert.False(t, policy.Allows(models.StatusPending, models.StatusResolved))
	// resolved has no entry, so it cannot be reopened
	assert.False(t, policy.Allows(models.StatusResolved, models.StatusPending))
	// rewriting the same status is always fine
	assert.True(t, policy.Allows(models.StatusResolved, models.StatusResolved))

	err = policy.Check(models.StatusPending, models.StatusResolved)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidTransition))
	assert.Contains(t, err.Error(), "pending to resolved")

	assert.NoError(t, policy.Check(models.StatusVerified, models.StatusAssigned))
}

func TestNewTransitionPolicy_InvalidStatus(t *testing.T) {
	_, err := NewTransitionPolicy(map[string][]string{"open": {"resolved"}})
	assert.Error(t, err)

	_, err = NewTransitionPolicy(map[string][]string{"pending": {"closed"}})
	assert.Error(t, err)
}
