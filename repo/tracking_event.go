package repo

import (
	"context"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
)

type TrackingEvent struct {
	ID          *string `gorm:"primaryKey;size:36"`
	SurveyID    *string `gorm:"size:36;index"`
	RecipientID *string `gorm:"size:36;index"`
	TrackingID  *string `gorm:"size:64;index"`
	EventType   *uint32
	IPAddress   *string `gorm:"size:64"`
	UserAgent   *string `gorm:"size:512"`
	CreateTime  *uint64
}

func (m *TrackingEvent) TableName() string {
	return "tracking_event_tab"
}

type TrackingEventRepo interface {
	Create(ctx context.Context, event *entity.TrackingEvent) error
	Count(ctx context.Context, surveyID string, eventType entity.TrackingEventType) (uint64, error)
}

type trackingEventRepo struct {
	baseRepo BaseRepo
}

func NewTrackingEventRepo(_ context.Context, baseRepo BaseRepo) TrackingEventRepo {
	return &trackingEventRepo{
		baseRepo: baseRepo,
	}
}

func (r *trackingEventRepo) Create(ctx context.Context, event *entity.TrackingEvent) error {
	return r.baseRepo.Create(ctx, ToTrackingEventModel(event))
}

func (r *trackingEventRepo) Count(ctx context.Context, surveyID string, eventType entity.TrackingEventType) (uint64, error) {
	return r.baseRepo.Count(ctx, new(TrackingEvent), &Filter{
		Conditions: []*Condition{
			{
				Field: "survey_id",
				Op:    OpEq,
				Value: surveyID,
			},
			{
				Field: "event_type",
				Op:    OpEq,
				Value: uint32(eventType),
			},
		},
	})
}

func ToTrackingEventModel(event *entity.TrackingEvent) *TrackingEvent {
	return &TrackingEvent{
		ID:          event.ID,
		SurveyID:    event.SurveyID,
		RecipientID: event.RecipientID,
		TrackingID:  event.TrackingID,
		EventType:   goutil.Uint32(uint32(event.EventType)),
		IPAddress:   event.IPAddress,
		UserAgent:   event.UserAgent,
		CreateTime:  event.CreateTime,
	}
}
