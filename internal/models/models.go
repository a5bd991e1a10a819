// Package models defines the users, complaints and notifications persisted by the service.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// User represents a registered citizen or authority member
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAuthority reports whether the user may triage complaints
func (u *User) IsAuthority() bool {
	return u != nil && u.Role == RoleAuthority
}

// UserResponse is the public projection returned by login and registration
type UserResponse struct {
	ID    int      `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
	Name  string   `json:"name"`
}

// ToResponse strips credentials from a user
func (u *User) ToResponse() UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role, Name: u.Name}
}

// Member is the minimal projection used by the assignment picker
type Member struct {
	ID   int      `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// Complaint is a citizen report tracked through the status lifecycle
type Complaint struct {
	ID           int             `json:"id"`
	CitizenID    int             `json:"citizen_id"`
	Type         ComplaintType   `json:"type"`
	Category     sql.NullString  `json:"category"`
	PhotoBefore  string          `json:"photo_before"`
	PhotoAfter   sql.NullString  `json:"photo_after"`
	Latitude     sql.NullFloat64 `json:"latitude"`
	Longitude    sql.NullFloat64 `json:"longitude"`
	Address      sql.NullString  `json:"address"`
	Status       ComplaintStatus `json:"status"`
	AIAnalysis   AIAnalysis      `json:"ai_analysis"`
	Urgency      Urgency         `json:"urgency"`
	AssignedTo   sql.NullInt64   `json:"assigned_to"`
	AssignedName sql.NullString  `json:"assigned_name"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsAssigned reports whether both assignee columns are populated
func (c *Complaint) IsAssigned() bool {
	return c.AssignedTo.Valid && c.AssignedName.Valid
}

// MarshalJSON flattens nullable columns into JSON nulls
func (c Complaint) MarshalJSON() (result0 []byte, err error) {
	analysis := c.AIAnalysis
	if analysis == nil {
		analysis = AIAnalysis{}
	}
	return json.Marshal(&struct {
		ID           int             `json:"id"`
		CitizenID    int             `json:"citizen_id"`
		Type         ComplaintType   `json:"type"`
		Category     *string         `json:"category"`
		PhotoBefore  string          `json:"photo_before"`
		PhotoAfter   *string         `json:"photo_after"`
		Latitude     *float64        `json:"latitude"`
		Longitude    *float64        `json:"longitude"`
		Address      *string         `json:"address"`
		Status       ComplaintStatus `json:"status"`
		AIAnalysis   AIAnalysis      `json:"ai_analysis"`
		Urgency      Urgency         `json:"urgency"`
		AssignedTo   *int64          `json:"assigned_to"`
		AssignedName *string         `json:"assigned_name"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    time.Time       `json:"updated_at"`
	}{
		ID:           c.ID,
		CitizenID:    c.CitizenID,
		Type:         c.Type,
		Category:     nullStringToPointer(c.Category),
		PhotoBefore:  c.PhotoBefore,
		PhotoAfter:   nullStringToPointer(c.PhotoAfter),
		Latitude:     nullFloat64ToPointer(c.Latitude),
		Longitude:    nullFloat64ToPointer(c.Longitude),
		Address:      nullStringToPointer(c.Address),
		Status:       c.Status,
		AIAnalysis:   analysis,
		Urgency:      c.Urgency,
		AssignedTo:   nullInt64ToPointer(c.AssignedTo),
		AssignedName: nullStringToPointer(c.AssignedName),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	})
}

// NewComplaint carries the fields a citizen submits
type NewComplaint struct {
	CitizenID   int
	Type        ComplaintType
	Category    *string
	PhotoBefore string
	Latitude    *float64
	Longitude   *float64
	Address     *string
	AIAnalysis  AIAnalysis
	Urgency     Urgency
}

// ComplaintUpdate is a partial update; nil fields are left untouched
type ComplaintUpdate struct {
	Status     *ComplaintStatus
	PhotoAfter *string
}

// IsEmpty reports whether the update changes nothing but the timestamp
func (u ComplaintUpdate) IsEmpty() bool {
	return u.Status == nil && u.PhotoAfter == nil
}

// ComplaintFilter selects which complaints List returns. A zero CitizenID means all.
type ComplaintFilter struct {
	CitizenID int
}

// Notification is a message for a single user, created when they are assigned a complaint
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusCount is one bucket of the status aggregation
type StatusCount struct {
	Status ComplaintStatus `json:"status"`
	Count  int             `json:"count"`
}

// TypeCount is one bucket of the type aggregation
type TypeCount struct {
	Type  ComplaintType `json:"type"`
	Count int           `json:"count"`
}

// Analytics is the dashboard summary
type Analytics struct {
	Stats     []StatusCount `json:"stats"`
	TypeStats []TypeCount   `json:"typeStats"`
}

// Total returns the number of complaints counted by the status buckets
func (a Analytics) Total() int {
	total := 0
	for _, s := range a.Stats {
		total += s.Count
	}
	return total
}

func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullFloat64ToPointer(nf sql.NullFloat64) *float64 {
	if nf.Valid {
		return &nf.Float64
	}
	return nil
}

func nullInt64ToPointer(ni sql.NullInt64) *int64 {
	if ni.Valid {
		return &ni.Int64
	}
	return nil
}

// PointerToNullString converts an optional string into a nullable column value
func PointerToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// PointerToNullFloat64 converts an optional float into a nullable column value
func PointerToNullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
