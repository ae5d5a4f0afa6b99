package entity

type Answer struct {
	QuestionID *string     `json:"question_id,omitempty" validate:"required"`
	Value      interface{} `json:"value,omitempty"`
}

func (e *Answer) GetQuestionID() string {
	if e != nil && e.QuestionID != nil {
		return *e.QuestionID
	}
	return ""
}

type SurveyResponse struct {
	ID               *string                `json:"id,omitempty"`
	SurveyID         *string                `json:"survey_id,omitempty"`
	AudienceMemberID *string                `json:"audience_member_id,omitempty"`
	Answers          []*Answer              `json:"answers,omitempty"`
	CompletionTime   *uint64                `json:"completion_time,omitempty"`
	IPAddress        *string                `json:"ip_address,omitempty"`
	RespondentInfo   map[string]interface{} `json:"respondent_info,omitempty"`
	CreateTime       *uint64                `json:"create_time,omitempty"`
}

func (e *SurveyResponse) GetSurveyID() string {
	if e != nil && e.SurveyID != nil {
		return *e.SurveyID
	}
	return ""
}

func (e *SurveyResponse) GetAudienceMemberID() string {
	if e != nil && e.AudienceMemberID != nil {
		return *e.AudienceMemberID
	}
	return ""
}

func (e *SurveyResponse) GetCompletionTime() uint64 {
	if e != nil && e.CompletionTime != nil {
		return *e.CompletionTime
	}
	return 0
}
