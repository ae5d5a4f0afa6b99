package entity

type CampaignStatus uint32

const (
	CampaignStatusUnknown CampaignStatus = iota
	CampaignStatusDraft
	CampaignStatusSending
	CampaignStatusCompleted
	CampaignStatusPartiallyFailed
)

var campaignStatusNames = map[CampaignStatus]string{
	CampaignStatusDraft:           "draft",
	CampaignStatusSending:         "sending",
	CampaignStatusCompleted:       "completed",
	CampaignStatusPartiallyFailed: "partially_failed",
}

func (s CampaignStatus) String() string {
	return enumName(campaignStatusNames, s)
}

func (s CampaignStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CampaignStatus) UnmarshalText(b []byte) error {
	v, err := parseEnum(campaignStatusNames, "campaign status", b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// From returns the only status a campaign may move to s from.
func (s CampaignStatus) From() CampaignStatus {
	switch s {
	case CampaignStatusSending:
		return CampaignStatusDraft
	case CampaignStatusCompleted, CampaignStatusPartiallyFailed:
		return CampaignStatusSending
	default:
		return CampaignStatusUnknown
	}
}

func (s CampaignStatus) CanTransitionTo(to CampaignStatus) bool {
	return s != CampaignStatusUnknown && to.From() == s
}

func (s CampaignStatus) IsFinal() bool {
	return s == CampaignStatusCompleted || s == CampaignStatusPartiallyFailed
}

// FinalCampaignStatus is completed only when nothing failed. A campaign where every send failed is
// still partially_failed.
func FinalCampaignStatus(failed uint64) CampaignStatus {
	if failed == 0 {
		return CampaignStatusCompleted
	}
	return CampaignStatusPartiallyFailed
}

type Campaign struct {
	ID             *string        `json:"id,omitempty"`
	SurveyID       *string        `json:"survey_id,omitempty"`
	UserID         *string        `json:"user_id,omitempty"`
	Name           *string        `json:"name,omitempty"`
	RecipientCount *uint64        `json:"recipient_count,omitempty"`
	SentCount      *uint64        `json:"sent_count,omitempty"`
	FailedCount    *uint64        `json:"failed_count,omitempty"`
	OpenedCount    *uint64        `json:"opened_count,omitempty"`
	RespondedCount *uint64        `json:"responded_count,omitempty"`
	Status         CampaignStatus `json:"status,omitempty"`
	SentAt         *uint64        `json:"sent_at,omitempty"`
	CreateTime     *uint64        `json:"create_time,omitempty"`
	UpdateTime     *uint64        `json:"update_time,omitempty"`

	SurveyTitle *string `json:"survey_title,omitempty"`
}

func (e *Campaign) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Campaign) GetSurveyID() string {
	if e != nil && e.SurveyID != nil {
		return *e.SurveyID
	}
	return ""
}

func (e *Campaign) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Campaign) GetRecipientCount() uint64 {
	if e != nil && e.RecipientCount != nil {
		return *e.RecipientCount
	}
	return 0
}

func (e *Campaign) GetSentCount() uint64 {
	if e != nil && e.SentCount != nil {
		return *e.SentCount
	}
	return 0
}

func (e *Campaign) GetFailedCount() uint64 {
	if e != nil && e.FailedCount != nil {
		return *e.FailedCount
	}
	return 0
}

func (e *Campaign) GetOpenedCount() uint64 {
	if e != nil && e.OpenedCount != nil {
		return *e.OpenedCount
	}
	return 0
}

func (e *Campaign) GetRespondedCount() uint64 {
	if e != nil && e.RespondedCount != nil {
		return *e.RespondedCount
	}
	return 0
}

func (e *Campaign) GetStatus() CampaignStatus {
	if e != nil {
		return e.Status
	}
	return CampaignStatusUnknown
}

func (e *Campaign) GetCreateTime() uint64 {
	if e != nil && e.CreateTime != nil {
		return *e.CreateTime
	}
	return 0
}
