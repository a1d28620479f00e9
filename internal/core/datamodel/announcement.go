package datamodel

import "time"

type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityMedium AnnouncementPriority = "medium"
	PriorityHigh   AnnouncementPriority = "high"
)

type Announcement struct {
	ID          ID
	Title       string
	Message     string
	Priority    AnnouncementPriority
	TargetRoles []Role
	IsActive    bool
	ExpiresAt   time.Time
	CreatedBy   ID
	CreatedAt   time.Time
}

type AnnouncementDTO struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Priority    string    `json:"priority"`
	TargetRoles []string  `json:"target_roles"`
	IsActive    bool      `json:"is_active"`
	ExpiresAt   Timestamp `json:"expires_at"`
	CreatedBy   ID        `json:"created_by"`
	CreatedAt   Timestamp `json:"created_at"`
}

func (d AnnouncementDTO) ToAnnouncement() Announcement {
	priority := AnnouncementPriority(d.Priority)
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		priority = PriorityMedium
	}

	roles := make([]Role, 0, len(d.TargetRoles))
	for _, r := range d.TargetRoles {
		roles = append(roles, Role(r))
	}

	return Announcement{
		ID:          d.ID,
		Title:       d.Title,
		Message:     d.Message,
		Priority:    priority,
		TargetRoles: roles,
		IsActive:    d.IsActive,
		ExpiresAt:   d.ExpiresAt.Time,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt.Time,
	}
}

// VisibleTo reports whether the announcement targets the given role. An
// empty target list means everyone.
func (a Announcement) VisibleTo(role Role, now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if !a.ExpiresAt.IsZero() && a.ExpiresAt.Before(now) {
		return false
	}
	if len(a.TargetRoles) == 0 {
		return true
	}
	for _, r := range a.TargetRoles {
		if r == role {
			return true
		}
	}
	return false
}
