package repo

import (
	"context"
	"errors"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"gorm.io/gorm"
)

const recipientBatchSize = 1000

var (
	ErrCampaignNotFound = errutil.NotFoundError(errors.New("campaign not found"))
)

type Campaign struct {
	ID             *string `gorm:"primaryKey;size:36"`
	SurveyID       *string `gorm:"size:36;index"`
	UserID         *string `gorm:"size:36"`
	Name           *string `gorm:"size:255"`
	RecipientCount *uint64 `gorm:"default:0"`
	SentCount      *uint64 `gorm:"default:0"`
	FailedCount    *uint64 `gorm:"default:0"`
	OpenedCount    *uint64 `gorm:"default:0"`
	RespondedCount *uint64 `gorm:"default:0"`
	Status         *uint32 `gorm:"index"`
	SentAt         *uint64
	CreateTime     *uint64 `gorm:"index"`
	UpdateTime     *uint64
}

func (m *Campaign) TableName() string {
	return "campaign_tab"
}

func (m *Campaign) GetID() string {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return ""
}

func (m *Campaign) GetStatus() uint32 {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

type CampaignFilter struct {
	SurveyID *string
	Status   *entity.CampaignStatus
	// CreateTimeLte selects campaigns created at or before the given unix time.
	CreateTimeLte *uint64
	Pagination    *Pagination
}

// CampaignCountersDelta is added to a campaign's counters.
type CampaignCountersDelta struct {
	SentCount      uint64
	FailedCount    uint64
	OpenedCount    uint64
	RespondedCount uint64
}

func (d CampaignCountersDelta) toUpdates() map[string]interface{} {
	updates := make(map[string]interface{})
	for field, v := range map[string]uint64{
		"sent_count":      d.SentCount,
		"failed_count":    d.FailedCount,
		"opened_count":    d.OpenedCount,
		"responded_count": d.RespondedCount,
	} {
		if v > 0 {
			updates[field] = gorm.Expr(field+" + ?", v)
		}
	}
	return updates
}

type CampaignRepo interface {
	// CreateWithRecipients inserts the campaign and all of its recipients atomically.
	CreateWithRecipients(ctx context.Context, campaign *entity.Campaign, recipients []*entity.Recipient) error
	GetByID(ctx context.Context, campaignID string) (*entity.Campaign, error)
	GetMany(ctx context.Context, f *CampaignFilter) ([]*entity.Campaign, *Pagination, error)
	// Transition moves the campaign to status to, only if it is currently in to.From().
	// It reports false when another writer got there first.
	Transition(ctx context.Context, campaignID string, to entity.CampaignStatus, fields *entity.Campaign) (bool, error)
	IncrCounters(ctx context.Context, campaignID string, delta CampaignCountersDelta) error
}

type campaignRepo struct {
	baseRepo BaseRepo
}

func NewCampaignRepo(_ context.Context, baseRepo BaseRepo) CampaignRepo {
	return &campaignRepo{
		baseRepo: baseRepo,
	}
}

func (r *campaignRepo) CreateWithRecipients(ctx context.Context, campaign *entity.Campaign, recipients []*entity.Recipient) error {
	campaignModel := ToCampaignModel(campaign)

	recipientModels := make([]*Recipient, 0, len(recipients))
	for _, recipient := range recipients {
		recipientModels = append(recipientModels, ToRecipientModel(recipient))
	}

	return r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		if err := r.baseRepo.Create(ctx, campaignModel); err != nil {
			return err
		}

		for start := 0; start < len(recipientModels); start += recipientBatchSize {
			end := start + recipientBatchSize
			if end > len(recipientModels) {
				end = len(recipientModels)
			}
			if err := r.baseRepo.CreateMany(ctx, new(Recipient), recipientModels[start:end]); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *campaignRepo) GetByID(ctx context.Context, campaignID string) (*entity.Campaign, error) {
	campaignModel := new(Campaign)
	if err := r.baseRepo.Get(ctx, campaignModel, &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpEq,
				Value: campaignID,
			},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	return ToCampaign(campaignModel), nil
}

func (r *campaignRepo) GetMany(ctx context.Context, f *CampaignFilter) ([]*entity.Campaign, *Pagination, error) {
	var status *uint32
	if f.Status != nil {
		status = goutil.Uint32(uint32(*f.Status))
	}

	res, pagination, err := r.baseRepo.GetMany(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{
				Field: "survey_id",
				Op:    OpEq,
				Value: f.SurveyID,
			},
			{
				Field: "status",
				Op:    OpEq,
				Value: status,
			},
			{
				Field: "create_time",
				Op:    OpLte,
				Value: f.CreateTimeLte,
			},
		},
		Pagination: f.Pagination,
	})
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]*entity.Campaign, 0, len(res))
	for _, m := range res {
		campaigns = append(campaigns, ToCampaign(m.(*Campaign)))
	}

	return campaigns, pagination, nil
}

func (r *campaignRepo) Transition(ctx context.Context, campaignID string, to entity.CampaignStatus, fields *entity.Campaign) (bool, error) {
	from := to.From()
	if from == entity.CampaignStatusUnknown {
		return false, errutil.BadRequestError(errors.New("invalid campaign status transition"))
	}

	updates := map[string]interface{}{
		"status":      uint32(to),
		"update_time": goutil.NowUnix(),
	}
	if fields != nil {
		if fields.SentCount != nil {
			updates["sent_count"] = *fields.SentCount
		}
		if fields.FailedCount != nil {
			updates["failed_count"] = *fields.FailedCount
		}
		if fields.SentAt != nil {
			updates["sent_at"] = *fields.SentAt
		}
	}

	n, err := r.baseRepo.UpdateWhere(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpEq,
				Value: campaignID,
			},
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

func (r *campaignRepo) IncrCounters(ctx context.Context, campaignID string, delta CampaignCountersDelta) error {
	updates := delta.toUpdates()
	if len(updates) == 0 {
		return nil
	}

	_, err := r.baseRepo.UpdateWhere(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpEq,
				Value: campaignID,
			},
		},
	}, updates)

	return err
}

func ToCampaign(campaign *Campaign) *entity.Campaign {
	return &entity.Campaign{
		ID:             campaign.ID,
		SurveyID:       campaign.SurveyID,
		UserID:         campaign.UserID,
		Name:           campaign.Name,
		RecipientCount: campaign.RecipientCount,
		SentCount:      campaign.SentCount,
		FailedCount:    campaign.FailedCount,
		OpenedCount:    campaign.OpenedCount,
		RespondedCount: campaign.RespondedCount,
		Status:         entity.CampaignStatus(campaign.GetStatus()),
		SentAt:         campaign.SentAt,
		CreateTime:     campaign.CreateTime,
		UpdateTime:     campaign.UpdateTime,
	}
}

func ToCampaignModel(campaign *entity.Campaign) *Campaign {
	return &Campaign{
		ID:             campaign.ID,
		SurveyID:       campaign.SurveyID,
		UserID:         campaign.UserID,
		Name:           campaign.Name,
		RecipientCount: campaign.RecipientCount,
		SentCount:      campaign.SentCount,
		FailedCount:    campaign.FailedCount,
		OpenedCount:    campaign.OpenedCount,
		RespondedCount: campaign.RespondedCount,
		Status:         goutil.Uint32(uint32(campaign.Status)),
		SentAt:         campaign.SentAt,
		CreateTime:     campaign.CreateTime,
		UpdateTime:     campaign.UpdateTime,
	}
}
