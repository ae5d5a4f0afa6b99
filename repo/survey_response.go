package repo

import (
	"context"
	"fmt"

	"github.com/ayushbirla71/survey-backend/entity"
)

type SurveyResponse struct {
	ID               *string `gorm:"primaryKey;size:36"`
	SurveyID         *string `gorm:"size:36;index"`
	AudienceMemberID *string `gorm:"size:36;index"`
	Answers          *string `gorm:"type:longtext"`
	CompletionTime   *uint64
	IPAddress        *string `gorm:"size:64"`
	RespondentInfo   *string `gorm:"type:text"`
	CreateTime       *uint64 `gorm:"index"`
}

func (m *SurveyResponse) TableName() string {
	return "survey_response_tab"
}

type SurveyResponseFilter struct {
	SurveyID   *string
	Pagination *Pagination
}

type SurveyResponseRepo interface {
	Create(ctx context.Context, response *entity.SurveyResponse) error
	GetMany(ctx context.Context, f *SurveyResponseFilter) ([]*entity.SurveyResponse, *Pagination, error)
	Count(ctx context.Context, f *SurveyResponseFilter) (uint64, error)
	// AvgCompletionTime is 0 when the survey has no responses. An empty surveyID averages over every survey.
	AvgCompletionTime(ctx context.Context, surveyID string) (float64, error)
}

type surveyResponseRepo struct {
	baseRepo BaseRepo
}

func NewSurveyResponseRepo(_ context.Context, baseRepo BaseRepo) SurveyResponseRepo {
	return &surveyResponseRepo{
		baseRepo: baseRepo,
	}
}

func (r *surveyResponseRepo) Create(ctx context.Context, response *entity.SurveyResponse) error {
	responseModel, err := ToSurveyResponseModel(response)
	if err != nil {
		return err
	}
	return r.baseRepo.Create(ctx, responseModel)
}

func (r *surveyResponseRepo) GetMany(ctx context.Context, f *SurveyResponseFilter) ([]*entity.SurveyResponse, *Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(SurveyResponse), &Filter{
		Conditions: []*Condition{
			{
				Field: "survey_id",
				Op:    OpEq,
				Value: f.SurveyID,
			},
		},
		Pagination: f.Pagination,
	})
	if err != nil {
		return nil, nil, err
	}

	responses := make([]*entity.SurveyResponse, 0, len(res))
	for _, m := range res {
		response, err := ToSurveyResponse(m.(*SurveyResponse))
		if err != nil {
			return nil, nil, err
		}
		responses = append(responses, response)
	}

	return responses, pagination, nil
}

func (r *surveyResponseRepo) Count(ctx context.Context, f *SurveyResponseFilter) (uint64, error) {
	return r.baseRepo.Count(ctx, new(SurveyResponse), &Filter{
		Conditions: []*Condition{
			{
				Field: "survey_id",
				Op:    OpEq,
				Value: f.SurveyID,
			},
		},
	})
}

func (r *surveyResponseRepo) AvgCompletionTime(ctx context.Context, surveyID string) (float64, error) {
	var id interface{}
	if surveyID != "" {
		id = surveyID
	}

	return r.baseRepo.Avg(ctx, new(SurveyResponse), "completion_time", &Filter{
		Conditions: []*Condition{
			{
				Field: "survey_id",
				Op:    OpEq,
				Value: id,
			},
		},
	})
}

func ToSurveyResponse(response *SurveyResponse) (*entity.SurveyResponse, error) {
	var answers []*entity.Answer
	if err := fromJsonColumn(response.Answers, &answers); err != nil {
		return nil, fmt.Errorf("decode survey response answers: %w", err)
	}

	var info map[string]interface{}
	if err := fromJsonColumn(response.RespondentInfo, &info); err != nil {
		return nil, fmt.Errorf("decode respondent info: %w", err)
	}

	return &entity.SurveyResponse{
		ID:               response.ID,
		SurveyID:         response.SurveyID,
		AudienceMemberID: response.AudienceMemberID,
		Answers:          answers,
		CompletionTime:   response.CompletionTime,
		IPAddress:        response.IPAddress,
		RespondentInfo:   info,
		CreateTime:       response.CreateTime,
	}, nil
}

func ToSurveyResponseModel(response *entity.SurveyResponse) (*SurveyResponse, error) {
	answers, err := toJsonColumn(response.Answers)
	if err != nil {
		return nil, err
	}

	info, err := toJsonColumn(response.RespondentInfo)
	if err != nil {
		return nil, err
	}

	return &SurveyResponse{
		ID:               response.ID,
		SurveyID:         response.SurveyID,
		AudienceMemberID: response.AudienceMemberID,
		Answers:          answers,
		CompletionTime:   response.CompletionTime,
		IPAddress:        response.IPAddress,
		RespondentInfo:   info,
		CreateTime:       response.CreateTime,
	}, nil
}
