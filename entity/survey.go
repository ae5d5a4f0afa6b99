package entity

type SurveyStatus uint32

const (
	SurveyStatusUnknown SurveyStatus = iota
	SurveyStatusDraft
	SurveyStatusActive
	SurveyStatusCompleted
	SurveyStatusArchived
)

var surveyStatusNames = map[SurveyStatus]string{
	SurveyStatusDraft:     "draft",
	SurveyStatusActive:    "active",
	SurveyStatusCompleted: "completed",
	SurveyStatusArchived:  "archived",
}

func (s SurveyStatus) String() string {
	return enumName(surveyStatusNames, s)
}

func (s SurveyStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SurveyStatus) UnmarshalText(b []byte) error {
	v, err := parseEnum(surveyStatusNames, "survey status", b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

var SurveyCategories = []string{"IT Sector", "Healthcare", "Education", "Retail", "Finance"}

const DefaultTargetCount uint64 = 1000

type Question struct {
	ID       *string  `json:"id,omitempty" validate:"required"`
	Type     *string  `json:"type,omitempty" validate:"required"`
	Question *string  `json:"question,omitempty" validate:"required"`
	Options  []string `json:"options,omitempty"`
	Required *bool    `json:"required,omitempty"`
}

func (e *Question) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Question) GetQuestion() string {
	if e != nil && e.Question != nil {
		return *e.Question
	}
	return ""
}

func (e *Question) GetType() string {
	if e != nil && e.Type != nil {
		return *e.Type
	}
	return ""
}

// AudienceCriteria targets a survey at audience members. Only the first value of each list
// is used when resolving recipients.
type AudienceCriteria struct {
	AgeGroups  []string `json:"age_groups,omitempty"`
	Genders    []string `json:"genders,omitempty"`
	Locations  []string `json:"locations,omitempty"`
	Industries []string `json:"industries,omitempty"`
}

type Survey struct {
	ID               *string           `json:"id,omitempty"`
	UserID           *string           `json:"user_id,omitempty"`
	Title            *string           `json:"title,omitempty"`
	Description      *string           `json:"description,omitempty"`
	Category         *string           `json:"category,omitempty"`
	Status           SurveyStatus      `json:"status,omitempty"`
	Questions        []*Question       `json:"questions,omitempty"`
	AudienceCriteria *AudienceCriteria `json:"audience_criteria,omitempty"`
	TargetCount      *uint64           `json:"target_count,omitempty"`
	HtmlContent      *string           `json:"html_content,omitempty"`
	PublicUrl        *string           `json:"public_url,omitempty"`
	EmailsSent       *uint64           `json:"emails_sent,omitempty"`
	EmailsOpened     *uint64           `json:"emails_opened,omitempty"`
	ResponseCount    *uint64           `json:"response_count,omitempty"`
	CreateTime       *uint64           `json:"create_time,omitempty"`
	UpdateTime       *uint64           `json:"update_time,omitempty"`
}

func (e *Survey) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Survey) GetUserID() string {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return ""
}

func (e *Survey) GetTitle() string {
	if e != nil && e.Title != nil {
		return *e.Title
	}
	return ""
}

func (e *Survey) GetDescription() string {
	if e != nil && e.Description != nil {
		return *e.Description
	}
	return ""
}

func (e *Survey) GetCategory() string {
	if e != nil && e.Category != nil {
		return *e.Category
	}
	return ""
}

func (e *Survey) GetStatus() SurveyStatus {
	if e != nil {
		return e.Status
	}
	return SurveyStatusUnknown
}

// IsClosed reports whether the survey stopped taking responses.
func (e *Survey) IsClosed() bool {
	status := e.GetStatus()
	return status == SurveyStatusCompleted || status == SurveyStatusArchived
}

func (e *Survey) GetAudienceCriteria() *AudienceCriteria {
	if e != nil && e.AudienceCriteria != nil {
		return e.AudienceCriteria
	}
	return new(AudienceCriteria)
}

// GetTargetCount falls back to DefaultTargetCount when unset or zero.
func (e *Survey) GetTargetCount() uint64 {
	if e != nil && e.TargetCount != nil && *e.TargetCount > 0 {
		return *e.TargetCount
	}
	return DefaultTargetCount
}

func (e *Survey) GetHtmlContent() string {
	if e != nil && e.HtmlContent != nil {
		return *e.HtmlContent
	}
	return ""
}

func (e *Survey) GetEmailsSent() uint64 {
	if e != nil && e.EmailsSent != nil {
		return *e.EmailsSent
	}
	return 0
}

func (e *Survey) GetEmailsOpened() uint64 {
	if e != nil && e.EmailsOpened != nil {
		return *e.EmailsOpened
	}
	return 0
}

func (e *Survey) GetResponseCount() uint64 {
	if e != nil && e.ResponseCount != nil {
		return *e.ResponseCount
	}
	return 0
}

func (e *Survey) GetCreateTime() uint64 {
	if e != nil && e.CreateTime != nil {
		return *e.CreateTime
	}
	return 0
}

func (e *Survey) Update(u *Survey) {
	if u.Title != nil {
		e.Title = u.Title
	}
	if u.Description != nil {
		e.Description = u.Description
	}
	if u.Category != nil {
		e.Category = u.Category
	}
	if u.Status != SurveyStatusUnknown {
		e.Status = u.Status
	}
	if u.Questions != nil {
		e.Questions = u.Questions
	}
	if u.AudienceCriteria != nil {
		e.AudienceCriteria = u.AudienceCriteria
	}
	if u.TargetCount != nil {
		e.TargetCount = u.TargetCount
	}
	if u.HtmlContent != nil {
		e.HtmlContent = u.HtmlContent
	}
	if u.PublicUrl != nil {
		e.PublicUrl = u.PublicUrl
	}
	if u.UpdateTime != nil {
		e.UpdateTime = u.UpdateTime
	}
}
