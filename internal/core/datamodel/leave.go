package datamodel

import "time"

type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

type LeaveType string

const (
	LeaveTypeSick   LeaveType = "sick"
	LeaveTypeCasual LeaveType = "casual"
	LeaveTypeAnnual LeaveType = "annual"
	LeaveTypeOther  LeaveType = "other"
)

type Leave struct {
	ID              ID
	UserID          ID
	UserName        string
	UserRole        Role
	Type            LeaveType
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	Status          LeaveStatus
	ApprovedBy      ID
	RejectionReason string
	CreatedAt       time.Time
}

type LeaveDTO struct {
	ID              ID        `json:"id"`
	User            ID        `json:"user"`
	UserName        string    `json:"user_name"`
	UserRole        string    `json:"user_role"`
	Type            string    `json:"leave_type"`
	StartDate       Timestamp `json:"start_date"`
	EndDate         Timestamp `json:"end_date"`
	Reason          string    `json:"reason"`
	Status          string    `json:"status"`
	ApprovedBy      ID        `json:"approved_by"`
	RejectionReason string    `json:"rejection_reason"`
	CreatedAt       Timestamp `json:"created_at"`
}

func (d LeaveDTO) ToLeave() Leave {
	status := LeaveStatus(d.Status)
	switch status {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusRejected:
	default:
		status = LeaveStatusPending
	}

	leaveType := LeaveType(d.Type)
	switch leaveType {
	case LeaveTypeSick, LeaveTypeCasual, LeaveTypeAnnual, LeaveTypeOther:
	default:
		leaveType = LeaveTypeOther
	}

	return Leave{
		ID:              d.ID,
		UserID:          d.User,
		UserName:        d.UserName,
		UserRole:        Role(d.UserRole),
		Type:            leaveType,
		StartDate:       d.StartDate.Time,
		EndDate:         d.EndDate.Time,
		Reason:          d.Reason,
		Status:          status,
		ApprovedBy:      d.ApprovedBy,
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt.Time,
	}
}
