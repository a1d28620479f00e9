package datamodel

import "time"

type ActivityLog struct {
	ID        ID
	UserID    ID
	UserName  string
	Action    string
	Module    string
	Details   string
	CreatedAt time.Time
}

type ActivityLogDTO struct {
	ID        ID        `json:"id"`
	User      ID        `json:"user"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	Module    string    `json:"module"`
	Details   string    `json:"details"`
	CreatedAt Timestamp `json:"created_at"`
}

func (d ActivityLogDTO) ToActivityLog() ActivityLog {
	return ActivityLog{
		ID:        d.ID,
		UserID:    d.User,
		UserName:  d.UserName,
		Action:    d.Action,
		Module:    d.Module,
		Details:   d.Details,
		CreatedAt: d.CreatedAt.Time,
	}
}
