package datamodel

import "time"

type TaskStatus string

const (
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusSiteVisit   TaskStatus = "site_visit"
	TaskStatusFamilyVisit TaskStatus = "family_visit"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusRejected    TaskStatus = "rejected"
)

type Task struct {
	ID          ID
	Title       string
	Description string
	Status      TaskStatus
	LeadID      ID
	LeadName    string
	LeadPhone   string
	ProjectID   ID
	AssignedTo  ID
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskDTO struct {
	ID             ID        `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	Lead           ID        `json:"lead"`
	LeadDetail     *LeadDTO  `json:"lead_detail"`
	Project        ID        `json:"project"`
	ProjectDetail  *UserStub `json:"project_detail"`
	AssignedTo     ID        `json:"assigned_to"`
	AssignedToInfo *UserStub `json:"assigned_to_detail"`
	DueDate        Timestamp `json:"due_date"`
	CreatedAt      Timestamp `json:"created_at"`
	UpdatedAt      Timestamp `json:"updated_at"`
}

func (d TaskDTO) ToTask() Task {
	status := TaskStatus(d.Status)
	switch status {
	case TaskStatusInProgress, TaskStatusSiteVisit, TaskStatusFamilyVisit, TaskStatusCompleted, TaskStatusRejected:
	default:
		status = TaskStatusInProgress
	}

	leadID := d.Lead
	leadName := ""
	leadPhone := ""
	if d.LeadDetail != nil {
		if !d.LeadDetail.ID.IsZero() {
			leadID = d.LeadDetail.ID
		}
		leadName = d.LeadDetail.Name
		leadPhone = d.LeadDetail.Phone
	}

	projectID := d.Project
	if d.ProjectDetail != nil && !d.ProjectDetail.ID.IsZero() {
		projectID = d.ProjectDetail.ID
	}

	assignedTo := d.AssignedTo
	if d.AssignedToInfo != nil && !d.AssignedToInfo.ID.IsZero() {
		assignedTo = d.AssignedToInfo.ID
	}

	return Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      status,
		LeadID:      leadID,
		LeadName:    leadName,
		LeadPhone:   leadPhone,
		ProjectID:   projectID,
		AssignedTo:  assignedTo,
		DueDate:     d.DueDate.Time,
		CreatedAt:   d.CreatedAt.Time,
		UpdatedAt:   d.UpdatedAt.Time,
	}
}
