package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/validator"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrUnknownCategory = errutil.ValidationError(errors.New("unknown survey category"))

type SurveyHandler interface {
	CreateSurvey(ctx context.Context, req *CreateSurveyRequest, res *CreateSurveyResponse) error
	GetSurvey(ctx context.Context, req *GetSurveyRequest, res *GetSurveyResponse) error
	GetSurveys(ctx context.Context, req *GetSurveysRequest, res *GetSurveysResponse) error
	UpdateSurvey(ctx context.Context, req *UpdateSurveyRequest, res *UpdateSurveyResponse) error
	DeleteSurvey(ctx context.Context, req *DeleteSurveyRequest, res *DeleteSurveyResponse) error
	DuplicateSurvey(ctx context.Context, req *DuplicateSurveyRequest, res *DuplicateSurveyResponse) error
	CreateSurveyHtml(ctx context.Context, req *CreateSurveyHtmlRequest, res *CreateSurveyHtmlResponse) error
	GetCategories(ctx context.Context, req *GetCategoriesRequest, res *GetCategoriesResponse) error
}

type surveyHandler struct {
	cfg        config.Campaign
	surveyRepo repo.SurveyRepo
	renderer   *Renderer
}

func NewSurveyHandler(cfg config.Campaign, surveyRepo repo.SurveyRepo, renderer *Renderer) SurveyHandler {
	return &surveyHandler{
		cfg:        cfg,
		surveyRepo: surveyRepo,
		renderer:   renderer,
	}
}

type CreateSurveyRequest struct {
	UserID           *string                  `json:"user_id,omitempty"`
	Title            *string                  `json:"title,omitempty" validate:"required,min=1,max=255"`
	Description      *string                  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category         *string                  `json:"category,omitempty" validate:"required"`
	Questions        []*entity.Question       `json:"questions,omitempty" validate:"omitempty,dive,required"`
	AudienceCriteria *entity.AudienceCriteria `json:"audience_criteria,omitempty"`
	TargetCount      *uint64                  `json:"target_count,omitempty" validate:"omitempty,min=1,max=100000"`
}

type CreateSurveyResponse struct {
	Survey *entity.Survey `json:"survey"`
}

func (h *surveyHandler) CreateSurvey(ctx context.Context, req *CreateSurveyRequest, res *CreateSurveyResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	if !goutil.ContainsStr(entity.SurveyCategories, *req.Category) {
		return ErrUnknownCategory
	}

	userID := goutil.NilIfEmpty(req.UserID)
	if userID == nil {
		userID = goutil.String(h.cfg.DefaultUserID)
	}

	now := goutil.NowUnix()
	survey := &entity.Survey{
		ID:               goutil.String(uuid.NewString()),
		UserID:           userID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Status:           entity.SurveyStatusDraft,
		Questions:        req.Questions,
		AudienceCriteria: req.AudienceCriteria,
		TargetCount:      req.TargetCount,
		EmailsSent:       goutil.Uint64(0),
		EmailsOpened:     goutil.Uint64(0),
		ResponseCount:    goutil.Uint64(0),
		CreateTime:       goutil.Uint64(now),
		UpdateTime:       goutil.Uint64(now),
	}

	if err := h.surveyRepo.Create(ctx, survey); err != nil {
		log.Ctx(ctx).Error().Msgf("create survey failed: %v", err)
		return err
	}

	res.Survey = survey

	return nil
}

type GetSurveyRequest struct {
	SurveyID *string `schema:"survey_id" json:"survey_id,omitempty" validate:"required"`
}

type GetSurveyResponse struct {
	Survey *entity.Survey `json:"survey"`
}

func (h *surveyHandler) GetSurvey(ctx context.Context, req *GetSurveyRequest, res *GetSurveyResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	survey, err := h.surveyRepo.GetByID(ctx, *req.SurveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	res.Survey = survey

	return nil
}

type GetSurveysRequest struct {
	Keyword    *string              `schema:"keyword" json:"keyword,omitempty"`
	Category   *string              `schema:"category" json:"category,omitempty"`
	Status     *entity.SurveyStatus `schema:"status" json:"status,omitempty"`
	UserID     *string              `schema:"user_id" json:"user_id,omitempty"`
	Pagination *repo.Pagination     `schema:"pagination" json:"pagination,omitempty"`
}

type GetSurveysResponse struct {
	Surveys    []*entity.Survey `json:"surveys"`
	Pagination *repo.Pagination `json:"pagination,omitempty"`
}

func (h *surveyHandler) GetSurveys(ctx context.Context, req *GetSurveysRequest, res *GetSurveysResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	surveys, pagination, err := h.surveyRepo.GetMany(ctx, &repo.SurveyFilter{
		Keyword:    goutil.NilIfEmpty(req.Keyword),
		Category:   goutil.NilIfEmpty(req.Category),
		Status:     req.Status,
		UserID:     goutil.NilIfEmpty(req.UserID),
		Pagination: req.Pagination,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get surveys failed: %v", err)
		return err
	}

	res.Surveys = surveys
	res.Pagination = pagination

	return nil
}

type UpdateSurveyRequest struct {
	SurveyID         *string                  `json:"survey_id,omitempty" validate:"required"`
	Title            *string                  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description      *string                  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category         *string                  `json:"category,omitempty"`
	Status           *entity.SurveyStatus     `json:"status,omitempty"`
	Questions        []*entity.Question       `json:"questions,omitempty" validate:"omitempty,dive,required"`
	AudienceCriteria *entity.AudienceCriteria `json:"audience_criteria,omitempty"`
	TargetCount      *uint64                  `json:"target_count,omitempty" validate:"omitempty,min=1,max=100000"`
}

type UpdateSurveyResponse struct {
	Survey *entity.Survey `json:"survey"`
}

func (h *surveyHandler) UpdateSurvey(ctx context.Context, req *UpdateSurveyRequest, res *UpdateSurveyResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	survey, err := h.surveyRepo.GetByID(ctx, *req.SurveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	if req.Category != nil && !goutil.ContainsStr(entity.SurveyCategories, *req.Category) {
		return ErrUnknownCategory
	}

	u := &entity.Survey{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Questions:        req.Questions,
		AudienceCriteria: req.AudienceCriteria,
		TargetCount:      req.TargetCount,
		UpdateTime:       goutil.Uint64(goutil.NowUnix()),
	}
	if req.Status != nil {
		u.Status = *req.Status
	}

	// copy so the cached survey is not mutated
	updated := *survey
	updated.Update(u)

	if err := h.surveyRepo.Update(ctx, &updated); err != nil {
		log.Ctx(ctx).Error().Msgf("update survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	res.Survey = &updated

	return nil
}

type DeleteSurveyRequest struct {
	SurveyID *string `json:"survey_id,omitempty" validate:"required"`
}

type DeleteSurveyResponse struct{}

func (h *surveyHandler) DeleteSurvey(ctx context.Context, req *DeleteSurveyRequest, _ *DeleteSurveyResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	if err := h.surveyRepo.Delete(ctx, *req.SurveyID); err != nil {
		log.Ctx(ctx).Error().Msgf("delete survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	return nil
}

type DuplicateSurveyRequest struct {
	SurveyID *string `json:"survey_id,omitempty" validate:"required"`
}

type DuplicateSurveyResponse struct {
	Survey *entity.Survey `json:"survey"`
}

func (h *surveyHandler) DuplicateSurvey(ctx context.Context, req *DuplicateSurveyRequest, res *DuplicateSurveyResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	src, err := h.surveyRepo.GetByID(ctx, *req.SurveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	now := goutil.NowUnix()
	survey := &entity.Survey{
		ID:               goutil.String(uuid.NewString()),
		UserID:           src.UserID,
		Title:            goutil.String(fmt.Sprintf("%s (Copy)", src.GetTitle())),
		Description:      src.Description,
		Category:         src.Category,
		Status:           entity.SurveyStatusDraft,
		Questions:        src.Questions,
		AudienceCriteria: src.AudienceCriteria,
		TargetCount:      src.TargetCount,
		EmailsSent:       goutil.Uint64(0),
		EmailsOpened:     goutil.Uint64(0),
		ResponseCount:    goutil.Uint64(0),
		CreateTime:       goutil.Uint64(now),
		UpdateTime:       goutil.Uint64(now),
	}

	if err := h.surveyRepo.Create(ctx, survey); err != nil {
		log.Ctx(ctx).Error().Msgf("duplicate survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	res.Survey = survey

	return nil
}

type CreateSurveyHtmlRequest struct {
	SurveyID *string `json:"survey_id,omitempty" validate:"required"`
}

type CreateSurveyHtmlResponse struct {
	PublicUrl   *string `json:"public_url"`
	HtmlContent *string `json:"html_content"`
}

// CreateSurveyHtml stores an untracked rendering of the survey page and its public address.
func (h *surveyHandler) CreateSurveyHtml(ctx context.Context, req *CreateSurveyHtmlRequest, res *CreateSurveyHtmlResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	survey, err := h.surveyRepo.GetByID(ctx, *req.SurveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	page, err := h.renderer.RenderSurveyPage(survey, "")
	if err != nil {
		log.Ctx(ctx).Error().Msgf("render survey page failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	updated := *survey
	updated.Update(&entity.Survey{
		HtmlContent: goutil.String(string(page)),
		PublicUrl:   goutil.String(h.renderer.SurveyURL(survey.GetID())),
		UpdateTime:  goutil.Uint64(goutil.NowUnix()),
	})

	if err := h.surveyRepo.Update(ctx, &updated); err != nil {
		log.Ctx(ctx).Error().Msgf("save survey html failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	res.PublicUrl = updated.PublicUrl
	res.HtmlContent = updated.HtmlContent

	return nil
}

type GetCategoriesRequest struct{}

type GetCategoriesResponse struct {
	Categories []string `json:"categories"`
}

func (h *surveyHandler) GetCategories(_ context.Context, _ *GetCategoriesRequest, res *GetCategoriesResponse) error {
	res.Categories = entity.SurveyCategories
	return nil
}
