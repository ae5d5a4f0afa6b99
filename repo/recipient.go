package repo

import (
	"context"
	"errors"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"gorm.io/gorm"
)

var (
	ErrRecipientNotFound = errutil.NotFoundError(errors.New("recipient not found"))
)

type Recipient struct {
	ID               *string `gorm:"primaryKey;size:36"`
	CampaignID       *string `gorm:"size:36;uniqueIndex:idx_campaign_member"`
	AudienceMemberID *string `gorm:"size:36;uniqueIndex:idx_campaign_member"`
	Email            *string `gorm:"size:255"`
	TrackingID       *string `gorm:"size:64;uniqueIndex"`
	Status           *uint32 `gorm:"index"`
	SentAt           *uint64
	OpenedAt         *uint64
	RespondedAt      *uint64
	ErrorMessage     *string `gorm:"type:text"`
	CreateTime       *uint64
}

func (m *Recipient) TableName() string {
	return "recipient_tab"
}

func (m *Recipient) GetStatus() uint32 {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

type RecipientFilter struct {
	CampaignID *string
	Status     *entity.RecipientStatus
	// OrderBy defaults to "sent_at DESC, id ASC".
	OrderBy    string
	Pagination *Pagination
}

type RecipientRepo interface {
	GetByTrackingID(ctx context.Context, trackingID string) (*entity.Recipient, error)
	GetMany(ctx context.Context, f *RecipientFilter) ([]*entity.Recipient, *Pagination, error)
	// TransitionByID and TransitionByTrackingID move a recipient to status to only if it is
	// currently in to.From(), stamping the matching timestamp. They report whether a row changed.
	TransitionByID(ctx context.Context, recipientID string, to entity.RecipientStatus, errMsg string) (bool, error)
	TransitionByTrackingID(ctx context.Context, trackingID string, to entity.RecipientStatus) (bool, error)
}

type recipientRepo struct {
	baseRepo BaseRepo
}

func NewRecipientRepo(_ context.Context, baseRepo BaseRepo) RecipientRepo {
	return &recipientRepo{
		baseRepo: baseRepo,
	}
}

func (r *recipientRepo) GetByTrackingID(ctx context.Context, trackingID string) (*entity.Recipient, error) {
	recipientModel := new(Recipient)
	if err := r.baseRepo.Get(ctx, recipientModel, &Filter{
		Conditions: []*Condition{
			{
				Field: "tracking_id",
				Op:    OpEq,
				Value: trackingID,
			},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	return ToRecipient(recipientModel), nil
}

func (r *recipientRepo) GetMany(ctx context.Context, f *RecipientFilter) ([]*entity.Recipient, *Pagination, error) {
	var status *uint32
	if f.Status != nil {
		status = goutil.Uint32(uint32(*f.Status))
	}

	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = "sent_at DESC, id ASC"
	}

	res, pagination, err := r.baseRepo.GetMany(ctx, new(Recipient), &Filter{
		Conditions: []*Condition{
			{
				Field: "campaign_id",
				Op:    OpEq,
				Value: f.CampaignID,
			},
			{
				Field: "status",
				Op:    OpEq,
				Value: status,
			},
		},
		Pagination: f.Pagination,
		OrderBy:    orderBy,
	})
	if err != nil {
		return nil, nil, err
	}

	recipients := make([]*entity.Recipient, 0, len(res))
	for _, m := range res {
		recipients = append(recipients, ToRecipient(m.(*Recipient)))
	}

	return recipients, pagination, nil
}

func (r *recipientRepo) TransitionByID(ctx context.Context, recipientID string, to entity.RecipientStatus, errMsg string) (bool, error) {
	return r.transition(ctx, &Condition{
		Field: "id",
		Op:    OpEq,
		Value: recipientID,
	}, to, errMsg)
}

func (r *recipientRepo) TransitionByTrackingID(ctx context.Context, trackingID string, to entity.RecipientStatus) (bool, error) {
	return r.transition(ctx, &Condition{
		Field: "tracking_id",
		Op:    OpEq,
		Value: trackingID,
	}, to, "")
}

func (r *recipientRepo) transition(ctx context.Context, key *Condition, to entity.RecipientStatus, errMsg string) (bool, error) {
	from := to.From()
	if from == entity.RecipientStatusUnknown {
		return false, errutil.BadRequestError(errors.New("invalid recipient status transition"))
	}

	updates := map[string]interface{}{
		"status": uint32(to),
	}

	now := goutil.NowUnix()
	switch to {
	case entity.RecipientStatusSent:
		updates["sent_at"] = now
	case entity.RecipientStatusOpened:
		updates["opened_at"] = now
	case entity.RecipientStatusResponded:
		updates["responded_at"] = now
	case entity.RecipientStatusFailed:
		updates["error_message"] = errMsg
	}

	n, err := r.baseRepo.UpdateWhere(ctx, new(Recipient), &Filter{
		Conditions: []*Condition{
			key,
			{
				Field: "status",
				Op:    OpEq,
				Value: uint32(from),
			},
		},
	}, updates)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func ToRecipient(recipient *Recipient) *entity.Recipient {
	return &entity.Recipient{
		ID:               recipient.ID,
		CampaignID:       recipient.CampaignID,
		AudienceMemberID: recipient.AudienceMemberID,
		Email:            recipient.Email,
		TrackingID:       recipient.TrackingID,
		Status:           entity.RecipientStatus(recipient.GetStatus()),
		SentAt:           recipient.SentAt,
		OpenedAt:         recipient.OpenedAt,
		RespondedAt:      recipient.RespondedAt,
		ErrorMessage:     recipient.ErrorMessage,
		CreateTime:       recipient.CreateTime,
	}
}

func ToRecipientModel(recipient *entity.Recipient) *Recipient {
	return &Recipient{
		ID:               recipient.ID,
		CampaignID:       recipient.CampaignID,
		AudienceMemberID: recipient.AudienceMemberID,
		Email:            recipient.Email,
		TrackingID:       recipient.TrackingID,
		Status:           goutil.Uint32(uint32(recipient.Status)),
		SentAt:           recipient.SentAt,
		OpenedAt:         recipient.OpenedAt,
		RespondedAt:      recipient.RespondedAt,
		ErrorMessage:     recipient.ErrorMessage,
		CreateTime:       recipient.CreateTime,
	}
}
