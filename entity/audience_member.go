package entity

import "strings"

type AudienceMember struct {
	ID           *string  `json:"id,omitempty"`
	UserID       *string  `json:"user_id,omitempty"`
	FirstName    *string  `json:"first_name,omitempty"`
	LastName     *string  `json:"last_name,omitempty"`
	Email        *string  `json:"email,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	AgeGroup     *string  `json:"age_group,omitempty"`
	Gender       *string  `json:"gender,omitempty"`
	City         *string  `json:"city,omitempty"`
	State        *string  `json:"state,omitempty"`
	Country      *string  `json:"country,omitempty"`
	Industry     *string  `json:"industry,omitempty"`
	JobTitle     *string  `json:"job_title,omitempty"`
	Education    *string  `json:"education,omitempty"`
	Income       *string  `json:"income,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	LastActivity *uint64  `json:"last_activity,omitempty"`
	CreateTime   *uint64  `json:"create_time,omitempty"`
	UpdateTime   *uint64  `json:"update_time,omitempty"`
}

func (e *AudienceMember) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *AudienceMember) GetFirstName() string {
	if e != nil && e.FirstName != nil {
		return *e.FirstName
	}
	return ""
}

func (e *AudienceMember) GetLastName() string {
	if e != nil && e.LastName != nil {
		return *e.LastName
	}
	return ""
}

func (e *AudienceMember) GetFullName() string {
	return strings.TrimSpace(e.GetFirstName() + " " + e.GetLastName())
}

func (e *AudienceMember) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *AudienceMember) GetAgeGroup() string {
	if e != nil && e.AgeGroup != nil {
		return *e.AgeGroup
	}
	return ""
}

func (e *AudienceMember) GetGender() string {
	if e != nil && e.Gender != nil {
		return *e.Gender
	}
	return ""
}

func (e *AudienceMember) GetCountry() string {
	if e != nil && e.Country != nil {
		return *e.Country
	}
	return ""
}

func (e *AudienceMember) GetIndustry() string {
	if e != nil && e.Industry != nil {
		return *e.Industry
	}
	return ""
}

// GetIsActive treats an unset flag as active.
func (e *AudienceMember) GetIsActive() bool {
	if e != nil && e.IsActive != nil {
		return *e.IsActive
	}
	return e != nil
}

func (e *AudienceMember) Update(u *AudienceMember) {
	fields := []struct{ dst **string; src *string }{
		{&e.FirstName, u.FirstName},
		{&e.LastName, u.LastName},
		{&e.Phone, u.Phone},
		{&e.AgeGroup, u.AgeGroup},
		{&e.Gender, u.Gender},
		{&e.City, u.City},
		{&e.State, u.State},
		{&e.Country, u.Country},
		{&e.Industry, u.Industry},
		{&e.JobTitle, u.JobTitle},
		{&e.Education, u.Education},
		{&e.Income, u.Income},
	}
	for _, f := range fields {
		if f.src != nil {
			*f.dst = f.src
		}
	}
	if u.IsActive != nil {
		e.IsActive = u.IsActive
	}
	if u.Tags != nil {
		e.Tags = u.Tags
	}
	if u.UpdateTime != nil {
		e.UpdateTime = u.UpdateTime
	}
}
