package datamodel

import "time"

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type LeadSource string

const (
	LeadSourceCall     LeadSource = "call"
	LeadSourceWalkIn   LeadSource = "walk_in"
	LeadSourceWebsite  LeadSource = "website"
	LeadSourceReferral LeadSource = "referral"
)

type RequirementType string

const (
	RequirementVilla     RequirementType = "villa"
	RequirementApartment RequirementType = "apartment"
	RequirementHouse     RequirementType = "house"
	RequirementPlot      RequirementType = "plot"
)

// Lead is the canonical in-memory record; all wire-format quirks are
// resolved by the time one exists.
type Lead struct {
	ID                ID
	Name              string
	Phone             string
	Email             string
	Address           string
	RequirementType   RequirementType
	BHKRequirement    string
	BudgetMin         int64
	BudgetMax         int64
	PreferredLocation string
	Source            LeadSource
	Status            LeadStatus
	Description       string
	FollowUpDate      time.Time
	CreatedBy         ID
	AssignedTo        ID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LeadDTO mirrors the backend serializer.
type LeadDTO struct {
	ID              ID         `json:"id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
	Company         string     `json:"company"`
	RequirementType string     `json:"requirement_type"`
	BHK             string     `json:"bhk_requirement"`
	BudgetMin       int64      `json:"budget_min"`
	BudgetMax       int64      `json:"budget_max"`
	Location        string     `json:"preferred_location"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	FollowUpDate    Timestamp  `json:"follow_up_date"`
	CreatedBy       ID         `json:"created_by"`
	CreatedByDetail *UserStub  `json:"created_by_detail"`
	AssignedTo      ID         `json:"assigned_to"`
	AssignedToInfo  *UserStub  `json:"assigned_to_detail"`
	CreatedAt       Timestamp  `json:"created_at"`
	UpdatedAt       Timestamp  `json:"updated_at"`
}

// UserStub is the nested owner/assignee reference some serializers expand
// in place of a bare id.
type UserStub struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

func (d LeadDTO) ToLead() Lead {
	createdBy := d.CreatedBy
	if d.CreatedByDetail != nil && !d.CreatedByDetail.ID.IsZero() {
		createdBy = d.CreatedByDetail.ID
	}
	assignedTo := d.AssignedTo
	if d.AssignedToInfo != nil && !d.AssignedToInfo.ID.IsZero() {
		assignedTo = d.AssignedToInfo.ID
	}

	status := LeadStatus(d.Status)
	switch status {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
	default:
		status = LeadStatusNew
	}

	requirement := RequirementType(d.RequirementType)
	switch requirement {
	case RequirementVilla, RequirementApartment, RequirementHouse, RequirementPlot:
	default:
		requirement = RequirementApartment
	}

	bhk := d.BHK
	if bhk == "" {
		bhk = "2"
	}

	return Lead{
		ID:                d.ID,
		Name:              d.Name,
		Phone:             d.Phone,
		Email:             d.Email,
		Address:           d.Company,
		RequirementType:   requirement,
		BHKRequirement:    bhk,
		BudgetMin:         d.BudgetMin,
		BudgetMax:         d.BudgetMax,
		PreferredLocation: d.Location,
		Source:            LeadSource(d.Source),
		Status:            status,
		Description:       d.Notes,
		FollowUpDate:      d.FollowUpDate.Time,
		CreatedBy:         createdBy,
		AssignedTo:        assignedTo,
		CreatedAt:         d.CreatedAt.Time,
		UpdatedAt:         d.UpdatedAt.Time,
	}
}
