package entity

type RecipientStatus uint32

const (
	RecipientStatusUnknown RecipientStatus = iota
	RecipientStatusPending
	RecipientStatusSent
	RecipientStatusFailed
	RecipientStatusOpened
	RecipientStatusResponded
)

var recipientStatusNames = map[RecipientStatus]string{
	RecipientStatusPending:   "pending",
	RecipientStatusSent:      "sent",
	RecipientStatusFailed:    "failed",
	RecipientStatusOpened:    "opened",
	RecipientStatusResponded: "responded",
}

func (s RecipientStatus) String() string {
	return enumName(recipientStatusNames, s)
}

func (s RecipientStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *RecipientStatus) UnmarshalText(b []byte) error {
	v, err := parseEnum(recipientStatusNames, "recipient status", b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// From returns the only status a recipient may move to s from:
// pending -> sent | failed, sent -> opened, opened -> responded.
func (s RecipientStatus) From() RecipientStatus {
	switch s {
	case RecipientStatusSent, RecipientStatusFailed:
		return RecipientStatusPending
	case RecipientStatusOpened:
		return RecipientStatusSent
	case RecipientStatusResponded:
		return RecipientStatusOpened
	default:
		return RecipientStatusUnknown
	}
}

func (s RecipientStatus) CanTransitionTo(to RecipientStatus) bool {
	return s != RecipientStatusUnknown && to.From() == s
}

// IsDelivered reports whether the mail was handed to the transport, including later engagement.
func (s RecipientStatus) IsDelivered() bool {
	return s == RecipientStatusSent || s == RecipientStatusOpened || s == RecipientStatusResponded
}

// IsOpened reports whether the recipient opened the mail, including a later response.
func (s RecipientStatus) IsOpened() bool {
	return s == RecipientStatusOpened || s == RecipientStatusResponded
}

type Recipient struct {
	ID               *string         `json:"id,omitempty"`
	CampaignID       *string         `json:"campaign_id,omitempty"`
	AudienceMemberID *string         `json:"audience_member_id,omitempty"`
	Email            *string         `json:"email,omitempty"`
	TrackingID       *string         `json:"tracking_id,omitempty"`
	Status           RecipientStatus `json:"status,omitempty"`
	SentAt           *uint64         `json:"sent_at,omitempty"`
	OpenedAt         *uint64         `json:"opened_at,omitempty"`
	RespondedAt      *uint64         `json:"responded_at,omitempty"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	CreateTime       *uint64         `json:"create_time,omitempty"`

	AudienceMember *AudienceMember `json:"audience_member,omitempty"`
}

func (e *Recipient) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Recipient) GetCampaignID() string {
	if e != nil && e.CampaignID != nil {
		return *e.CampaignID
	}
	return ""
}

func (e *Recipient) GetAudienceMemberID() string {
	if e != nil && e.AudienceMemberID != nil {
		return *e.AudienceMemberID
	}
	return ""
}

func (e *Recipient) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *Recipient) GetTrackingID() string {
	if e != nil && e.TrackingID != nil {
		return *e.TrackingID
	}
	return ""
}

func (e *Recipient) GetStatus() RecipientStatus {
	if e != nil {
		return e.Status
	}
	return RecipientStatusUnknown
}

func (e *Recipient) GetSentAt() uint64 {
	if e != nil && e.SentAt != nil {
		return *e.SentAt
	}
	return 0
}
