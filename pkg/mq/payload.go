package mq

import "fmt"

// Payload names the kind of work a message carries. It travels as its name, so producers and
// consumers built from different releases agree on it.
type Payload uint32

const (
	PayloadUnknown Payload = iota
	PayloadRunCampaign
)

var payloadNames = map[Payload]string{
	PayloadRunCampaign: "run_campaign",
}

func (p Payload) String() string {
	if name, ok := payloadNames[p]; ok {
		return name
	}
	return "unknown"
}

func (p Payload) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Payload) UnmarshalText(b []byte) error {
	v, ok := ParsePayload(string(b))
	if !ok {
		return fmt.Errorf("invalid payload: %q", string(b))
	}
	*p = v
	return nil
}

func ParsePayload(name string) (Payload, bool) {
	for p, n := range payloadNames {
		if n == name {
			return p, true
		}
	}
	return PayloadUnknown, false
}

// RunCampaign asks a worker to run the send loop of a draft campaign.
type RunCampaign struct {
	CampaignID *string `json:"campaign_id"`
}

func (m *RunCampaign) GetCampaignID() string {
	if m != nil && m.CampaignID != nil {
		return *m.CampaignID
	}
	return ""
}
