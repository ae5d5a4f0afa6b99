package handler

import (
	"context"
	"math"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/validator"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/rs/zerolog/log"
)

const defaultRecentSurveys = 5

type GetDashboardStatsRequest struct{}

type GetDashboardStatsResponse struct {
	TotalSurveys   uint64 `json:"total_surveys"`
	TotalResponses uint64 `json:"total_responses"`
	// CompletionRate compares responses with the summed survey targets, in percent.
	CompletionRate uint64 `json:"completion_rate"`
	// AvgResponseTime is in minutes.
	AvgResponseTime float64 `json:"avg_response_time"`
	EmailsSent      uint64  `json:"emails_sent"`
	EmailsOpened    uint64  `json:"emails_opened"`
	OpenRate        uint64  `json:"open_rate"`
}

func (h *analyticsHandler) GetDashboardStats(ctx context.Context, _ *GetDashboardStatsRequest, res *GetDashboardStatsResponse) error {
	totals, err := h.surveyRepo.GetTotals(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey totals failed: %v", err)
		return err
	}

	responses, err := h.surveyResponseRepo.Count(ctx, new(repo.SurveyResponseFilter))
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count survey responses failed: %v", err)
		return err
	}

	avg, err := h.surveyResponseRepo.AvgCompletionTime(ctx, "")
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get avg completion time failed: %v", err)
		return err
	}

	res.TotalSurveys = totals.Surveys
	res.TotalResponses = responses
	res.CompletionRate = percent(responses, totals.TargetCount)
	res.AvgResponseTime = math.Round(avg/60*10) / 10
	res.EmailsSent = totals.EmailsSent
	res.EmailsOpened = totals.EmailsOpened
	res.OpenRate = percent(totals.EmailsOpened, totals.EmailsSent)

	return nil
}

type GetRecentSurveysRequest struct {
	UserID *string `schema:"user_id" json:"user_id,omitempty"`
	Limit  *uint32 `schema:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
}

func (r *GetRecentSurveysRequest) GetLimit() uint32 {
	if r != nil && r.Limit != nil {
		return *r.Limit
	}
	return defaultRecentSurveys
}

type RecentSurvey struct {
	ID             *string             `json:"id,omitempty"`
	Title          *string             `json:"title,omitempty"`
	Category       *string             `json:"category,omitempty"`
	Status         entity.SurveyStatus `json:"status,omitempty"`
	Responses      uint64              `json:"responses"`
	Target         uint64              `json:"target"`
	CompletionRate uint64              `json:"completion_rate"`
	CreateTime     *uint64             `json:"create_time,omitempty"`
}

type GetRecentSurveysResponse struct {
	Surveys []*RecentSurvey `json:"surveys"`
}

func (h *analyticsHandler) GetRecentSurveys(ctx context.Context, req *GetRecentSurveysRequest, res *GetRecentSurveysResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	surveys, _, err := h.surveyRepo.GetMany(ctx, &repo.SurveyFilter{
		UserID: req.UserID,
		Pagination: &repo.Pagination{
			Page:  goutil.Uint32(1),
			Limit: goutil.Uint32(req.GetLimit()),
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get recent surveys failed: %v", err)
		return err
	}

	res.Surveys = make([]*RecentSurvey, 0, len(surveys))
	for _, s := range surveys {
		var target uint64
		if s.TargetCount != nil {
			target = *s.TargetCount
		}

		res.Surveys = append(res.Surveys, &RecentSurvey{
			ID:             s.ID,
			Title:          s.Title,
			Category:       s.Category,
			Status:         s.GetStatus(),
			Responses:      s.GetResponseCount(),
			Target:         target,
			CompletionRate: percent(s.GetResponseCount(), target),
			CreateTime:     s.CreateTime,
		})
	}

	return nil
}
