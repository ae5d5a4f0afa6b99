package handler

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/validator"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/rs/zerolog/log"
)

type CampaignStats struct {
	Total        uint64 `json:"total"`
	Pending      uint64 `json:"pending"`
	Sent         uint64 `json:"sent"`
	Failed       uint64 `json:"failed"`
	Opened       uint64 `json:"opened"`
	Responded    uint64 `json:"responded"`
	OpenRate     uint64 `json:"open_rate"`
	ResponseRate uint64 `json:"response_rate"`
}

// ComputeCampaignStats counts recipients by status. Sent includes recipients that later opened or
// responded, and opened includes those that responded.
func ComputeCampaignStats(recipients []*entity.Recipient) *CampaignStats {
	stats := &CampaignStats{
		Total: uint64(len(recipients)),
	}

	for _, r := range recipients {
		status := r.GetStatus()
		switch {
		case status == entity.RecipientStatusPending:
			stats.Pending++
		case status == entity.RecipientStatusFailed:
			stats.Failed++
		}
		if status.IsDelivered() {
			stats.Sent++
		}
		if status.IsOpened() {
			stats.Opened++
		}
		if status == entity.RecipientStatusResponded {
			stats.Responded++
		}
	}

	stats.OpenRate = percent(stats.Opened, stats.Sent)
	stats.ResponseRate = percent(stats.Responded, stats.Sent)

	return stats
}

func percent(n, total uint64) uint64 {
	if total == 0 {
		return 0
	}
	return uint64(math.Round(float64(n) / float64(total) * 100))
}

type AnalyticsHandler interface {
	GetCampaignAnalytics(ctx context.Context, req *GetCampaignAnalyticsRequest, res *GetCampaignAnalyticsResponse) error
	GetSurveyDetails(ctx context.Context, req *GetSurveyDetailsRequest, res *GetSurveyDetailsResponse) error
	GetSurveyResults(ctx context.Context, req *GetSurveyResultsRequest, res *GetSurveyResultsResponse) error
	GetDashboardStats(ctx context.Context, req *GetDashboardStatsRequest, res *GetDashboardStatsResponse) error
	GetRecentSurveys(ctx context.Context, req *GetRecentSurveysRequest, res *GetRecentSurveysResponse) error
}

type analyticsHandler struct {
	surveyRepo         repo.SurveyRepo
	campaignRepo       repo.CampaignRepo
	recipientRepo      repo.RecipientRepo
	audienceMemberRepo repo.AudienceMemberRepo
	trackingEventRepo  repo.TrackingEventRepo
	surveyResponseRepo repo.SurveyResponseRepo
}

func NewAnalyticsHandler(
	surveyRepo repo.SurveyRepo,
	campaignRepo repo.CampaignRepo,
	recipientRepo repo.RecipientRepo,
	audienceMemberRepo repo.AudienceMemberRepo,
	trackingEventRepo repo.TrackingEventRepo,
	surveyResponseRepo repo.SurveyResponseRepo,
) AnalyticsHandler {
	return &analyticsHandler{
		surveyRepo:         surveyRepo,
		campaignRepo:       campaignRepo,
		recipientRepo:      recipientRepo,
		audienceMemberRepo: audienceMemberRepo,
		trackingEventRepo:  trackingEventRepo,
		surveyResponseRepo: surveyResponseRepo,
	}
}

type GetCampaignAnalyticsRequest struct {
	CampaignID *string `schema:"campaign_id" json:"campaign_id,omitempty" validate:"required"`
}

type GetCampaignAnalyticsResponse struct {
	Campaign   *entity.Campaign    `json:"campaign"`
	Recipients []*entity.Recipient `json:"recipients"`
	Stats      *CampaignStats      `json:"stats"`
}

func (h *analyticsHandler) GetCampaignAnalytics(ctx context.Context, req *GetCampaignAnalyticsRequest, res *GetCampaignAnalyticsResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	campaign, err := h.campaignRepo.GetByID(ctx, *req.CampaignID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed: %v, campaign_id: %v", err, *req.CampaignID)
		return err
	}

	recipients, _, err := h.recipientRepo.GetMany(ctx, &repo.RecipientFilter{
		CampaignID: campaign.ID,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign recipients failed: %v, campaign_id: %v", err, campaign.GetID())
		return err
	}

	if err := attachAudienceMembers(ctx, h.audienceMemberRepo, recipients); err != nil {
		log.Ctx(ctx).Error().Msgf("get recipient members failed: %v, campaign_id: %v", err, campaign.GetID())
		return err
	}

	res.Campaign = campaign
	res.Recipients = recipients
	res.Stats = ComputeCampaignStats(recipients)

	return nil
}

type EmailStats struct {
	CampaignCount uint64 `json:"campaign_count"`
	Recipients    uint64 `json:"recipients"`
	Sent          uint64 `json:"sent"`
	Failed        uint64 `json:"failed"`
	Opened        uint64 `json:"opened"`
	Responded     uint64 `json:"responded"`
	OpenRate      uint64 `json:"open_rate"`
	ResponseRate  uint64 `json:"response_rate"`
}

// SumCampaigns rolls campaign counters up to survey level.
func SumCampaigns(campaigns []*entity.Campaign) *EmailStats {
	stats := &EmailStats{
		CampaignCount: uint64(len(campaigns)),
	}
	for _, c := range campaigns {
		stats.Recipients += c.GetRecipientCount()
		stats.Sent += c.GetSentCount()
		stats.Failed += c.GetFailedCount()
		stats.Opened += c.GetOpenedCount()
		stats.Responded += c.GetRespondedCount()
	}
	stats.OpenRate = percent(stats.Opened, stats.Sent)
	stats.ResponseRate = percent(stats.Responded, stats.Sent)
	return stats
}

type GetSurveyDetailsRequest struct {
	SurveyID *string `schema:"survey_id" json:"survey_id,omitempty" validate:"required"`
}

type GetSurveyDetailsResponse struct {
	Survey     *entity.Survey `json:"survey"`
	EmailStats *EmailStats    `json:"email_stats"`
	PageViews  *uint64        `json:"page_views"`
}

func (h *analyticsHandler) GetSurveyDetails(ctx context.Context, req *GetSurveyDetailsRequest, res *GetSurveyDetailsResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	survey, err := h.surveyRepo.GetByID(ctx, *req.SurveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	campaigns, _, err := h.campaignRepo.GetMany(ctx, &repo.CampaignFilter{
		SurveyID: survey.ID,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey campaigns failed: %v, survey_id: %v", err, survey.GetID())
		return err
	}

	pageViews, err := h.trackingEventRepo.Count(ctx, survey.GetID(), entity.TrackingEventTypeSurveyAccess)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count page views failed: %v, survey_id: %v", err, survey.GetID())
		return err
	}

	res.Survey = survey
	res.EmailStats = SumCampaigns(campaigns)
	res.PageViews = goutil.Uint64(pageViews)

	return nil
}

type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Type       string `json:"type"`
	Answered   uint64 `json:"answered"`
	// Counts is keyed by option for choice questions.
	Counts map[string]uint64 `json:"counts,omitempty"`
	// TextAnswers holds free-text answers, most recent first.
	TextAnswers []string `json:"text_answers,omitempty"`
}

type Demographics struct {
	AgeGroups  map[string]uint64 `json:"age_groups"`
	Genders    map[string]uint64 `json:"genders"`
	Countries  map[string]uint64 `json:"countries"`
	Industries map[string]uint64 `json:"industries"`
	Anonymous  uint64            `json:"anonymous"`
}

type GetSurveyResultsRequest struct {
	SurveyID *string `schema:"survey_id" json:"survey_id,omitempty" validate:"required"`
}

type GetSurveyResultsResponse struct {
	TotalResponses    uint64            `json:"total_responses"`
	AvgCompletionTime float64           `json:"avg_completion_time"`
	Questions         []*QuestionResult `json:"questions"`
	Demographics      *Demographics     `json:"demographics"`
}

func (h *analyticsHandler) GetSurveyResults(ctx context.Context, req *GetSurveyResultsRequest, res *GetSurveyResultsResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	survey, err := h.surveyRepo.GetByID(ctx, *req.SurveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, *req.SurveyID)
		return err
	}

	responses, _, err := h.surveyResponseRepo.GetMany(ctx, &repo.SurveyResponseFilter{
		SurveyID: survey.ID,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey responses failed: %v, survey_id: %v", err, survey.GetID())
		return err
	}

	avg, err := h.surveyResponseRepo.AvgCompletionTime(ctx, survey.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get avg completion time failed: %v, survey_id: %v", err, survey.GetID())
		return err
	}

	demographics, err := h.getDemographics(ctx, responses)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get respondent demographics failed: %v, survey_id: %v", err, survey.GetID())
		return err
	}

	res.TotalResponses = uint64(len(responses))
	res.AvgCompletionTime = math.Round(avg*100) / 100
	res.Questions = AggregateAnswers(survey.Questions, responses)
	res.Demographics = demographics

	return nil
}

// AggregateAnswers tallies choice answers per option and collects free-text answers.
func AggregateAnswers(questions []*entity.Question, responses []*entity.SurveyResponse) []*QuestionResult {
	results := make([]*QuestionResult, 0, len(questions))
	byID := make(map[string]*QuestionResult, len(questions))

	for _, q := range questions {
		qr := &QuestionResult{
			QuestionID: q.GetID(),
			Question:   q.GetQuestion(),
			Type:       q.GetType(),
		}
		if isChoiceQuestion(q.GetType()) {
			qr.Counts = make(map[string]uint64)
			for _, opt := range q.Options {
				qr.Counts[opt] = 0
			}
		}
		results = append(results, qr)
		byID[q.GetID()] = qr
	}

	for _, resp := range responses {
		for _, answer := range resp.Answers {
			qr, ok := byID[answer.GetQuestionID()]
			if !ok {
				continue
			}

			values := answerValues(answer.Value)
			if len(values) == 0 {
				continue
			}
			qr.Answered++

			for _, v := range values {
				if qr.Counts != nil {
					qr.Counts[v]++
				} else {
					qr.TextAnswers = append(qr.TextAnswers, v)
				}
			}
		}
	}

	return results
}

func isChoiceQuestion(t string) bool {
	return goutil.ContainsStr([]string{"single_choice", "multiple_choice", "rating", "yes_no"}, t)
}

func answerValues(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []interface{}:
		values := make([]string, 0, len(val))
		for _, item := range val {
			values = append(values, answerValues(item)...)
		}
		return values
	case []string:
		return val
	case float64:
		return []string{fmt.Sprintf("%g", val)}
	default:
		return []string{fmt.Sprint(val)}
	}
}

func (h *analyticsHandler) getDemographics(ctx context.Context, responses []*entity.SurveyResponse) (*Demographics, error) {
	demographics := &Demographics{
		AgeGroups:  make(map[string]uint64),
		Genders:    make(map[string]uint64),
		Countries:  make(map[string]uint64),
		Industries: make(map[string]uint64),
	}

	ids := make([]string, 0)
	for _, resp := range responses {
		if resp.GetAudienceMemberID() == "" {
			demographics.Anonymous++
			continue
		}
		ids = append(ids, resp.GetAudienceMemberID())
	}
	if len(ids) == 0 {
		return demographics, nil
	}

	members, _, err := h.audienceMemberRepo.GetMany(ctx, &repo.AudienceMemberFilter{
		IDs: dedupe(ids),
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.AudienceMember, len(members))
	for _, m := range members {
		byID[m.GetID()] = m
	}

	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			demographics.Anonymous++
			continue
		}
		incrKnown(demographics.AgeGroups, m.GetAgeGroup())
		incrKnown(demographics.Genders, m.GetGender())
		incrKnown(demographics.Countries, m.GetCountry())
		incrKnown(demographics.Industries, m.GetIndustry())
	}

	return demographics, nil
}

func incrKnown(m map[string]uint64, key string) {
	if key == "" {
		key = "unknown"
	}
	m[key]++
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
