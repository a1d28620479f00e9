package datamodel

import "time"

type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusInactive  CustomerStatus = "inactive"
	CustomerStatusConverted CustomerStatus = "converted"
)

type Customer struct {
	ID         ID
	Name       string
	Phone      string
	Email      string
	Address    string
	Status     CustomerStatus
	AssignedTo ID
	CreatedBy  ID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CustomerDTO struct {
	ID             ID        `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	Status         string    `json:"status"`
	AssignedTo     ID        `json:"assigned_to"`
	AssignedToInfo *UserStub `json:"assigned_to_detail"`
	CreatedBy      ID        `json:"created_by"`
	CreatedAt      Timestamp `json:"created_at"`
	UpdatedAt      Timestamp `json:"updated_at"`
}

func (d CustomerDTO) ToCustomer() Customer {
	status := CustomerStatus(d.Status)
	switch status {
	case CustomerStatusActive, CustomerStatusInactive, CustomerStatusConverted:
	default:
		status = CustomerStatusActive
	}

	assignedTo := d.AssignedTo
	if d.AssignedToInfo != nil && !d.AssignedToInfo.ID.IsZero() {
		assignedTo = d.AssignedToInfo.ID
	}

	return Customer{
		ID:         d.ID,
		Name:       d.Name,
		Phone:      d.Phone,
		Email:      d.Email,
		Address:    d.Address,
		Status:     status,
		AssignedTo: assignedTo,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt.Time,
		UpdatedAt:  d.UpdatedAt.Time,
	}
}
