package datamodel

import "time"

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

type Project struct {
	ID          ID
	Name        string
	Description string
	Status      ProjectStatus
	StartDate   time.Time
	EndDate     time.Time
	Budget      int64
	Photos      []string
	CoverImage  string
	CreatedAt   time.Time
}

type ProjectDTO struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	StartDate   Timestamp `json:"start_date"`
	EndDate     Timestamp `json:"end_date"`
	Budget      int64     `json:"budget"`
	Photos      []string  `json:"photos"`
	CoverImage  string    `json:"cover_image"`
	CreatedAt   Timestamp `json:"created_at"`
}

func (d ProjectDTO) ToProject() Project {
	status := ProjectStatus(d.Status)
	switch status {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled:
	default:
		status = ProjectStatusPlanning
	}

	// a project without an end date runs until its start date for
	// calendar purposes, matching how dashboards render it
	endDate := d.EndDate.Time
	if endDate.IsZero() {
		endDate = d.StartDate.Time
	}

	photos := d.Photos
	if photos == nil {
		photos = []string{}
	}

	return Project{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Status:      status,
		StartDate:   d.StartDate.Time,
		EndDate:     endDate,
		Budget:      d.Budget,
		Photos:      photos,
		CoverImage:  d.CoverImage,
		CreatedAt:   d.CreatedAt.Time,
	}
}
