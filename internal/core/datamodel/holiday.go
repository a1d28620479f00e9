package datamodel

import "time"

type HolidayType string

const (
	HolidayNational  HolidayType = "national"
	HolidayReligious HolidayType = "religious"
	HolidayCompany   HolidayType = "company"
	HolidayOptional  HolidayType = "optional"
)

type Holiday struct {
	ID          ID
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Type        HolidayType
	Description string
	Image       string
	IsRecurring bool
	CreatedBy   ID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type HolidayDTO struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	StartDate   Timestamp `json:"start_date"`
	EndDate     Timestamp `json:"end_date"`
	Type        string    `json:"holiday_type"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	IsRecurring bool      `json:"is_recurring"`
	CreatedBy   ID        `json:"created_by"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

func (d HolidayDTO) ToHoliday() Holiday {
	holidayType := HolidayType(d.Type)
	switch holidayType {
	case HolidayNational, HolidayReligious, HolidayCompany, HolidayOptional:
	default:
		holidayType = HolidayCompany
	}

	// single-day holidays come back without an end date
	endDate := d.EndDate.Time
	if endDate.IsZero() {
		endDate = d.StartDate.Time
	}

	return Holiday{
		ID:          d.ID,
		Name:        d.Name,
		StartDate:   d.StartDate.Time,
		EndDate:     endDate,
		Type:        holidayType,
		Description: d.Description,
		Image:       d.Image,
		IsRecurring: d.IsRecurring,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt.Time,
		UpdatedAt:   d.UpdatedAt.Time,
	}
}
