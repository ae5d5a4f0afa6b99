package entity

type TrackingEventType uint32

const (
	TrackingEventTypeUnknown TrackingEventType = iota
	TrackingEventTypeOpen
	TrackingEventTypeSurveyAccess
)

var trackingEventTypeNames = map[TrackingEventType]string{
	TrackingEventTypeOpen:         "open",
	TrackingEventTypeSurveyAccess: "survey_access",
}

func (t TrackingEventType) String() string {
	return enumName(trackingEventTypeNames, t)
}

func (t TrackingEventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TrackingEventType) UnmarshalText(b []byte) error {
	v, err := parseEnum(trackingEventTypeNames, "tracking event type", b)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TrackingEvent is an append-only record of one open or page access. RecipientID is nil for
// anonymous accesses.
type TrackingEvent struct {
	ID          *string           `json:"id,omitempty"`
	SurveyID    *string           `json:"survey_id,omitempty"`
	RecipientID *string           `json:"recipient_id,omitempty"`
	TrackingID  *string           `json:"tracking_id,omitempty"`
	EventType   TrackingEventType `json:"event_type,omitempty"`
	IPAddress   *string           `json:"ip_address,omitempty"`
	UserAgent   *string           `json:"user_agent,omitempty"`
	CreateTime  *uint64           `json:"create_time,omitempty"`
}

func (e *TrackingEvent) GetTrackingID() string {
	if e != nil && e.TrackingID != nil {
		return *e.TrackingID
	}
	return ""
}

func (e *TrackingEvent) GetRecipientID() string {
	if e != nil && e.RecipientID != nil {
		return *e.RecipientID
	}
	return ""
}
