package entity

// AudienceSegment is a saved set of audience criteria. MemberCount is taken when the segment is
// created and is not kept in sync with later imports.
type AudienceSegment struct {
	ID          *string           `json:"id,omitempty"`
	UserID      *string           `json:"user_id,omitempty"`
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Criteria    *AudienceCriteria `json:"criteria,omitempty"`
	MemberCount *uint64           `json:"member_count,omitempty"`
	CreateTime  *uint64           `json:"create_time,omitempty"`
	UpdateTime  *uint64           `json:"update_time,omitempty"`
}

func (e *AudienceSegment) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *AudienceSegment) GetUserID() string {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return ""
}

func (e *AudienceSegment) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *AudienceSegment) GetDescription() string {
	if e != nil && e.Description != nil {
		return *e.Description
	}
	return ""
}

func (e *AudienceSegment) GetCriteria() *AudienceCriteria {
	if e != nil && e.Criteria != nil {
		return e.Criteria
	}
	return new(AudienceCriteria)
}

func (e *AudienceSegment) GetMemberCount() uint64 {
	if e != nil && e.MemberCount != nil {
		return *e.MemberCount
	}
	return 0
}

func (e *AudienceSegment) GetCreateTime() uint64 {
	if e != nil && e.CreateTime != nil {
		return *e.CreateTime
	}
	return 0
}

// AudienceStats breaks the audience down by demographic. Countries and industries keep the
// largest groups only.
type AudienceStats struct {
	Total      uint64            `json:"total"`
	Active     uint64            `json:"active"`
	ByAgeGroup map[string]uint64 `json:"by_age_group"`
	ByGender   map[string]uint64 `json:"by_gender"`
	ByCountry  map[string]uint64 `json:"by_country"`
	ByIndustry map[string]uint64 `json:"by_industry"`
}
