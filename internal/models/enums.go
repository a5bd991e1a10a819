package models

import (
	"strings"

	contextutils "wastereport/internal/utils"
)

// ComplaintStatus is the lifecycle state of a complaint
type ComplaintStatus string

// Complaint statuses
const (
	StatusPending  ComplaintStatus = "pending"
	StatusVerified ComplaintStatus = "verified"
	StatusAssigned ComplaintStatus = "assigned"
	StatusResolved ComplaintStatus = "resolved"
)

// AllComplaintStatuses lists every status in lifecycle order
var AllComplaintStatuses = []ComplaintStatus{StatusPending, StatusVerified, StatusAssigned, StatusResolved}

// IsValid reports whether s is a known status
func (s ComplaintStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusAssigned, StatusResolved:
		return true
	}
	return false
}

// ParseComplaintStatus converts a wire string into a ComplaintStatus
func ParseComplaintStatus(v string) (ComplaintStatus, error) {
	s := ComplaintStatus(strings.TrimSpace(v))
	if !s.IsValid() {
		return "", contextutils.WrapErrorf(contextutils.ErrValidationFailed, "unknown complaint status %q", v)
	}
	return s, nil
}

// ComplaintType is the kind of problem being reported
type ComplaintType string

// Complaint types
const (
	TypeGarbage      ComplaintType = "garbage"
	TypeMissedPickup ComplaintType = "missed_pickup"
	TypeDeadAnimal   ComplaintType = "dead_animal"
)

// IsValid reports whether t is a known complaint type
func (t ComplaintType) IsValid() bool {
	switch t {
	case TypeGarbage, TypeMissedPickup, TypeDeadAnimal:
		return true
	}
	return false
}

// ParseComplaintType converts a wire string into a ComplaintType
func ParseComplaintType(v string) (ComplaintType, error) {
	t := ComplaintType(strings.TrimSpace(v))
	if !t.IsValid() {
		return "", contextutils.WrapErrorf(contextutils.ErrValidationFailed, "unknown complaint type %q", v)
	}
	return t, nil
}

// Urgency is the three-level priority attached to a complaint
type Urgency string

// Urgency levels
const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// DefaultUrgency is used when a complaint is filed without one
const DefaultUrgency = UrgencyMedium

// IsValid reports whether u is a known urgency level
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// ParseUrgency converts a wire string into an Urgency. Empty input yields the default.
func ParseUrgency(v string) (Urgency, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultUrgency, nil
	}
	u := Urgency(v)
	if !u.IsValid() {
		return "", contextutils.WrapErrorf(contextutils.ErrValidationFailed, "unknown urgency %q", v)
	}
	return u, nil
}

// UserRole distinguishes citizens from municipal staff
type UserRole string

// User roles
const (
	RoleCitizen   UserRole = "citizen"
	RoleAuthority UserRole = "authority"
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	switch r {
	case RoleCitizen, RoleAuthority:
		return true
	}
	return false
}

// ParseUserRole converts a wire string into a UserRole. Empty input yields citizen.
func ParseUserRole(v string) (UserRole, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return RoleCitizen, nil
	}
	r := UserRole(v)
	if !r.IsValid() {
		return "", contextutils.WrapErrorf(contextutils.ErrValidationFailed, "unknown role %q", v)
	}
	return r, nil
}
