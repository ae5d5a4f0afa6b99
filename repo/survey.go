package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"gorm.io/gorm"
)

const surveyCachePrefix = "survey"

var (
	ErrSurveyNotFound = errutil.NotFoundError(errors.New("survey not found"))
)

type Survey struct {
	ID               *string `gorm:"primaryKey;size:36"`
	UserID           *string `gorm:"size:36;index"`
	Title            *string `gorm:"size:255"`
	Description      *string `gorm:"type:text"`
	Category         *string `gorm:"size:64;index"`
	Status           *uint32
	Questions        *string `gorm:"type:longtext"`
	AudienceCriteria *string `gorm:"type:text"`
	TargetCount      *uint64
	HtmlContent      *string `gorm:"type:longtext"`
	PublicUrl        *string `gorm:"size:512"`
	EmailsSent       *uint64 `gorm:"default:0"`
	EmailsOpened     *uint64 `gorm:"default:0"`
	ResponseCount    *uint64 `gorm:"default:0"`
	CreateTime       *uint64 `gorm:"index"`
	UpdateTime       *uint64
}

func (m *Survey) TableName() string {
	return "survey_tab"
}

func (m *Survey) GetStatus() uint32 {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

type SurveyFilter struct {
	Keyword    *string
	Category   *string
	Status     *entity.SurveyStatus
	UserID     *string
	Pagination *Pagination
}

// SurveyStatsDelta is added to a survey's rolling counters.
type SurveyStatsDelta struct {
	EmailsSent    uint64
	EmailsOpened  uint64
	ResponseCount uint64
}

type SurveyRepo interface {
	Create(ctx context.Context, survey *entity.Survey) error
	GetByID(ctx context.Context, surveyID string) (*entity.Survey, error)
	GetMany(ctx context.Context, f *SurveyFilter) ([]*entity.Survey, *Pagination, error)
	Update(ctx context.Context, survey *entity.Survey) error
	IncrStats(ctx context.Context, surveyID string, delta SurveyStatsDelta) error
	Delete(ctx context.Context, surveyID string) error
	GetTotals(ctx context.Context) (*SurveyTotals, error)
}

// SurveyTotals sums survey counters across every survey.
type SurveyTotals struct {
	Surveys      uint64
	TargetCount  uint64
	EmailsSent   uint64
	EmailsOpened uint64
}

type surveyRepo struct {
	baseRepo  BaseRepo
	baseCache BaseCache
}

func NewSurveyRepo(_ context.Context, baseRepo BaseRepo, baseCache BaseCache) SurveyRepo {
	return &surveyRepo{
		baseRepo:  baseRepo,
		baseCache: baseCache,
	}
}

func (r *surveyRepo) Create(ctx context.Context, survey *entity.Survey) error {
	surveyModel, err := ToSurveyModel(survey)
	if err != nil {
		return err
	}
	return r.baseRepo.Create(ctx, surveyModel)
}

func (r *surveyRepo) GetByID(ctx context.Context, surveyID string) (*entity.Survey, error) {
	if v, ok := r.baseCache.Get(ctx, surveyCachePrefix, surveyID); ok {
		survey := *v.(*entity.Survey)
		if err := r.loadCounters(ctx, &survey); err != nil {
			if errors.Is(err, ErrSurveyNotFound) {
				r.baseCache.Del(ctx, surveyCachePrefix, surveyID)
			}
			return nil, err
		}
		return &survey, nil
	}

	surveyModel := new(Survey)
	if err := r.baseRepo.Get(ctx, surveyModel, &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpEq,
				Value: surveyID,
			},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, err
	}

	survey, err := ToSurvey(surveyModel)
	if err != nil {
		return nil, err
	}

	cached := *survey
	r.baseCache.Set(ctx, surveyCachePrefix, surveyID, &cached)

	return survey, nil
}

// loadCounters refreshes the delivery counters of a cached survey. Counters move on every send,
// open and response, in this process and in the jobs, so they are never served from the cache.
func (r *surveyRepo) loadCounters(ctx context.Context, survey *entity.Survey) error {
	counters := new(Survey)
	if err := r.baseRepo.Get(ctx, counters, &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpEq,
				Value: survey.GetID(),
			},
		},
		Fields: []string{"id", "emails_sent", "emails_opened", "response_count"},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSurveyNotFound
		}
		return err
	}

	survey.EmailsSent = counters.EmailsSent
	survey.EmailsOpened = counters.EmailsOpened
	survey.ResponseCount = counters.ResponseCount

	return nil
}

func (r *surveyRepo) GetMany(ctx context.Context, f *SurveyFilter) ([]*entity.Survey, *Pagination, error) {
	var status *uint32
	if f.Status != nil {
		status = goutil.Uint32(uint32(*f.Status))
	}

	var keyword *string
	if f.Keyword != nil {
		keyword = likePattern(*f.Keyword)
	}

	res, pagination, err := r.baseRepo.GetMany(ctx, new(Survey), &Filter{
		Conditions: []*Condition{
			{
				Field:         "user_id",
				Op:            OpEq,
				Value:         f.UserID,
				NextLogicalOp: And,
			},
			{
				Field:         "category",
				Op:            OpEq,
				Value:         f.Category,
				NextLogicalOp: And,
			},
			{
				Field:         "status",
				Op:            OpEq,
				Value:         status,
				NextLogicalOp: And,
			},
			{
				Group: []*Condition{
					{
						Field:         "title",
						Op:            OpLike,
						Value:         keyword,
						NextLogicalOp: Or,
					},
					{
						Field: "description",
						Op:    OpLike,
						Value: keyword,
					},
				},
			},
		},
		Pagination: f.Pagination,
	})
	if err != nil {
		return nil, nil, err
	}

	surveys := make([]*entity.Survey, 0, len(res))
	for _, m := range res {
		survey, err := ToSurvey(m.(*Survey))
		if err != nil {
			return nil, nil, err
		}
		surveys = append(surveys, survey)
	}

	return surveys, pagination, nil
}

// Update writes the editable fields of survey. Counters are owned by IncrStats and are never
// overwritten here.
func (r *surveyRepo) Update(ctx context.Context, survey *entity.Survey) error {
	surveyModel, err := ToSurveyModel(survey)
	if err != nil {
		return err
	}
	surveyModel.EmailsSent = nil
	surveyModel.EmailsOpened = nil
	surveyModel.ResponseCount = nil

	if err := r.baseRepo.Update(ctx, surveyModel); err != nil {
		return err
	}

	r.baseRepo.AfterCommit(ctx, func(ctx context.Context) {
		r.baseCache.Del(ctx, surveyCachePrefix, survey.GetID())
	})

	return nil
}

func (r *surveyRepo) IncrStats(ctx context.Context, surveyID string, delta SurveyStatsDelta) error {
	updates := make(map[string]interface{})
	if delta.EmailsSent > 0 {
		updates["emails_sent"] = gorm.Expr("emails_sent + ?", delta.EmailsSent)
	}
	if delta.EmailsOpened > 0 {
		updates["emails_opened"] = gorm.Expr("emails_opened + ?", delta.EmailsOpened)
	}
	if delta.ResponseCount > 0 {
		updates["response_count"] = gorm.Expr("response_count + ?", delta.ResponseCount)
	}
	if len(updates) == 0 {
		return nil
	}

	_, err := r.baseRepo.UpdateWhere(ctx, new(Survey), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpEq,
				Value: surveyID,
			},
		},
	}, updates)

	return err
}

// Delete removes the survey and everything hanging off it in one transaction, children first:
// responses, tracking events, recipients, campaigns, then the survey itself.
func (r *surveyRepo) Delete(ctx context.Context, surveyID string) error {
	bySurvey := &Filter{
		Conditions: []*Condition{
			{
				Field: "survey_id",
				Op:    OpEq,
				Value: surveyID,
			},
		},
	}

	return r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		if err := r.baseRepo.Get(ctx, new(Survey), &Filter{
			Conditions: []*Condition{
				{
					Field: "id",
					Op:    OpEq,
					Value: surveyID,
				},
			},
		}); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSurveyNotFound
			}
			return err
		}

		campaigns, _, err := r.baseRepo.GetMany(ctx, new(Campaign), bySurvey)
		if err != nil {
			return err
		}

		if _, err := r.baseRepo.Delete(ctx, new(SurveyResponse), bySurvey); err != nil {
			return err
		}

		if _, err := r.baseRepo.Delete(ctx, new(TrackingEvent), bySurvey); err != nil {
			return err
		}

		if len(campaigns) > 0 {
			campaignIDs := make([]string, 0, len(campaigns))
			for _, c := range campaigns {
				campaignIDs = append(campaignIDs, c.(*Campaign).GetID())
			}

			if _, err := r.baseRepo.Delete(ctx, new(Recipient), &Filter{
				Conditions: []*Condition{
					{
						Field: "campaign_id",
						Op:    OpIn,
						Value: campaignIDs,
					},
				},
			}); err != nil {
				return err
			}

			if _, err := r.baseRepo.Delete(ctx, new(Campaign), bySurvey); err != nil {
				return err
			}
		}

		_, err = r.baseRepo.Delete(ctx, new(Survey), &Filter{
			Conditions: []*Condition{
				{
					Field: "id",
					Op:    OpEq,
					Value: surveyID,
				},
			},
		})
		if err != nil {
			return err
		}

		r.baseRepo.AfterCommit(ctx, func(ctx context.Context) {
			r.baseCache.Del(ctx, surveyCachePrefix, surveyID)
		})

		return nil
	})
}

func (r *surveyRepo) GetTotals(ctx context.Context) (*SurveyTotals, error) {
	surveys, err := r.baseRepo.Count(ctx, new(Survey), nil)
	if err != nil {
		return nil, err
	}

	totals := &SurveyTotals{
		Surveys: surveys,
	}

	for _, counter := range []struct {
		field string
		dst   *uint64
	}{
		{"target_count", &totals.TargetCount},
		{"emails_sent", &totals.EmailsSent},
		{"emails_opened", &totals.EmailsOpened},
	} {
		sum, err := r.baseRepo.Sum(ctx, new(Survey), counter.field, nil)
		if err != nil {
			return nil, err
		}
		*counter.dst = sum
	}

	return totals, nil
}

func ToSurvey(survey *Survey) (*entity.Survey, error) {
	var questions []*entity.Question
	if err := fromJsonColumn(survey.Questions, &questions); err != nil {
		return nil, fmt.Errorf("decode survey questions: %w", err)
	}

	var criteria *entity.AudienceCriteria
	if err := fromJsonColumn(survey.AudienceCriteria, &criteria); err != nil {
		return nil, fmt.Errorf("decode survey audience criteria: %w", err)
	}

	return &entity.Survey{
		ID:               survey.ID,
		UserID:           survey.UserID,
		Title:            survey.Title,
		Description:      survey.Description,
		Category:         survey.Category,
		Status:           entity.SurveyStatus(survey.GetStatus()),
		Questions:        questions,
		AudienceCriteria: criteria,
		TargetCount:      survey.TargetCount,
		HtmlContent:      survey.HtmlContent,
		PublicUrl:        survey.PublicUrl,
		EmailsSent:       survey.EmailsSent,
		EmailsOpened:     survey.EmailsOpened,
		ResponseCount:    survey.ResponseCount,
		CreateTime:       survey.CreateTime,
		UpdateTime:       survey.UpdateTime,
	}, nil
}

func ToSurveyModel(survey *entity.Survey) (*Survey, error) {
	questions, err := toJsonColumn(survey.Questions)
	if err != nil {
		return nil, err
	}

	criteria, err := toJsonColumn(survey.AudienceCriteria)
	if err != nil {
		return nil, err
	}

	var status *uint32
	if survey.Status != entity.SurveyStatusUnknown {
		status = goutil.Uint32(uint32(survey.Status))
	}

	return &Survey{
		ID:               survey.ID,
		UserID:           survey.UserID,
		Title:            survey.Title,
		Description:      survey.Description,
		Category:         survey.Category,
		Status:           status,
		Questions:        questions,
		AudienceCriteria: criteria,
		TargetCount:      survey.TargetCount,
		HtmlContent:      survey.HtmlContent,
		PublicUrl:        survey.PublicUrl,
		EmailsSent:       survey.EmailsSent,
		EmailsOpened:     survey.EmailsOpened,
		ResponseCount:    survey.ResponseCount,
		CreateTime:       survey.CreateTime,
		UpdateTime:       survey.UpdateTime,
	}, nil
}
