package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/router"
	"github.com/ayushbirla71/survey-backend/pkg/validator"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrSurveyClosed = errutil.ValidationError(errors.New("survey is not accepting responses"))
)

type ResponseHandler interface {
	SubmitSurveyResponse(ctx context.Context, req *SubmitSurveyResponseRequest, res *SubmitSurveyResponseResponse) error
	GetSurveyResponses(ctx context.Context, req *GetSurveyResponsesRequest, res *GetSurveyResponsesResponse) error
}

type responseHandler struct {
	txService          repo.TxService
	surveyRepo         repo.SurveyRepo
	campaignRepo       repo.CampaignRepo
	recipientRepo      repo.RecipientRepo
	surveyResponseRepo repo.SurveyResponseRepo
}

func NewResponseHandler(
	txService repo.TxService,
	surveyRepo repo.SurveyRepo,
	campaignRepo repo.CampaignRepo,
	recipientRepo repo.RecipientRepo,
	surveyResponseRepo repo.SurveyResponseRepo,
) ResponseHandler {
	return &responseHandler{
		txService:          txService,
		surveyRepo:         surveyRepo,
		campaignRepo:       campaignRepo,
		recipientRepo:      recipientRepo,
		surveyResponseRepo: surveyResponseRepo,
	}
}

type SubmitSurveyResponseRequest struct {
	SurveyID       *string                `json:"survey_id,omitempty" validate:"required"`
	TrackingID     *string                `json:"t,omitempty"`
	Answers        []*entity.Answer       `json:"answers,omitempty" validate:"required,min=1,dive,required"`
	CompletionTime *uint64                `json:"completion_time,omitempty"`
	RespondentInfo map[string]interface{} `json:"respondent_info,omitempty"`
}

func (r *SubmitSurveyResponseRequest) GetTrackingID() string {
	if r != nil && r.TrackingID != nil {
		return *r.TrackingID
	}
	return ""
}

type SubmitSurveyResponseResponse struct {
	Response *entity.SurveyResponse `json:"response"`
}

func (h *responseHandler) SubmitSurveyResponse(ctx context.Context, req *SubmitSurveyResponseRequest, res *SubmitSurveyResponseResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	survey, err := h.surveyRepo.GetByID(ctx, *req.SurveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	if survey.IsClosed() {
		return ErrSurveyClosed
	}

	if err := checkAnswers(survey.Questions, req.Answers); err != nil {
		return err
	}

	// an unknown or foreign token still accepts the response, anonymously
	var (
		recipient *entity.Recipient
		campaign  *entity.Campaign
	)
	if trackingID := req.GetTrackingID(); trackingID != "" {
		recipient, campaign, err = getRecipientCampaign(ctx, h.recipientRepo, h.campaignRepo, trackingID)
		if err != nil && !errutil.IsNotFound(err) {
			log.Ctx(ctx).Error().Msgf("get recipient failed: %v, tracking_id: %v", err, trackingID)
			return err
		}
		if campaign.GetSurveyID() != survey.GetID() {
			recipient, campaign = nil, nil
		}
	}

	response := &entity.SurveyResponse{
		ID:             goutil.String(uuid.NewString()),
		SurveyID:       survey.ID,
		Answers:        req.Answers,
		CompletionTime: req.CompletionTime,
		IPAddress:      goutil.NilIfEmpty(goutil.String(router.GetClientInfo(ctx).IPAddress)),
		RespondentInfo: req.RespondentInfo,
		CreateTime:     goutil.Uint64(goutil.NowUnix()),
	}
	if recipient != nil {
		response.AudienceMemberID = recipient.AudienceMemberID
	}

	if err := h.txService.RunTx(ctx, func(ctx context.Context) error {
		if err := h.surveyResponseRepo.Create(ctx, response); err != nil {
			return err
		}

		if err := h.surveyRepo.IncrStats(ctx, survey.GetID(), repo.SurveyStatsDelta{
			ResponseCount: 1,
		}); err != nil {
			return err
		}

		if recipient == nil {
			return nil
		}

		return h.markResponded(ctx, recipient, campaign)
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("submit survey response failed: %v, survey_id: %v", err, survey.GetID())
		return err
	}

	res.Response = response

	return nil
}

// markResponded walks the recipient through opened to responded. A recipient that responds without
// the open being tracked still counts as opened.
func (h *responseHandler) markResponded(ctx context.Context, recipient *entity.Recipient, campaign *entity.Campaign) error {
	if _, err := markOpened(ctx, h.recipientRepo, h.campaignRepo, h.surveyRepo, recipient, campaign); err != nil {
		return err
	}

	ok, err := h.recipientRepo.TransitionByTrackingID(ctx, recipient.GetTrackingID(), entity.RecipientStatusResponded)
	if err != nil || !ok {
		return err
	}

	return h.campaignRepo.IncrCounters(ctx, campaign.GetID(), repo.CampaignCountersDelta{
		RespondedCount: 1,
	})
}

// checkAnswers rejects answers to unknown questions and missing required answers.
func checkAnswers(questions []*entity.Question, answers []*entity.Answer) error {
	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		answered[a.GetQuestionID()] = len(answerValues(a.Value)) > 0
	}

	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.GetID()] = true
		if q.Required != nil && *q.Required && !answered[q.GetID()] {
			return errutil.ValidationError(fmt.Errorf("missing answer to required question: %s", q.GetID()))
		}
	}

	for id := range answered {
		if !known[id] {
			return errutil.ValidationError(fmt.Errorf("unknown question: %s", id))
		}
	}

	return nil
}

type GetSurveyResponsesRequest struct {
	SurveyID   *string          `schema:"survey_id" json:"survey_id,omitempty" validate:"required"`
	Pagination *repo.Pagination `schema:"pagination" json:"pagination,omitempty"`
}

type GetSurveyResponsesResponse struct {
	Responses  []*entity.SurveyResponse `json:"responses"`
	Pagination *repo.Pagination         `json:"pagination,omitempty"`
}

func (h *responseHandler) GetSurveyResponses(ctx context.Context, req *GetSurveyResponsesRequest, res *GetSurveyResponsesResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	responses, pagination, err := h.surveyResponseRepo.GetMany(ctx, &repo.SurveyResponseFilter{
		SurveyID:   req.SurveyID,
		Pagination: req.Pagination,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey responses failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	res.Responses = responses
	res.Pagination = pagination

	return nil
}
