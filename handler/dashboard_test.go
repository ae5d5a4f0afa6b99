package handler

import (
	"context"
	"testing"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(syncConfig(), nil)
	_, recipients := sentCampaign(t, f, "s1", 2)
	f.seedSurvey("s2", entity.SurveyStatusDraft)

	survey := f.store.survey("s1")
	survey.TargetCount = goutil.Uint64(4)
	require.NoError(t, fakeSurveyRepo{f.store}.Update(ctx, survey))

	f.tracking.OnEmailOpen(ctx, recipients[0].GetTrackingID())
	for _, completion := range []uint64{30, 90} {
		require.NoError(t, f.response.SubmitSurveyResponse(ctx, &SubmitSurveyResponseRequest{
			SurveyID:       goutil.String("s1"),
			Answers:        answers("q1", "Good"),
			CompletionTime: goutil.Uint64(completion),
		}, new(SubmitSurveyResponseResponse)))
	}

	res := new(GetDashboardStatsResponse)
	require.NoError(t, f.analytics.GetDashboardStats(ctx, new(GetDashboardStatsRequest), res))

	assert.Equal(t, uint64(2), res.TotalSurveys)
	assert.Equal(t, uint64(2), res.TotalResponses)
	assert.Equal(t, uint64(50), res.CompletionRate)
	assert.Equal(t, 1.0, res.AvgResponseTime)
	assert.Equal(t, uint64(2), res.EmailsSent)
	assert.Equal(t, uint64(1), res.EmailsOpened)
	assert.Equal(t, uint64(50), res.OpenRate)
}

func TestGetDashboardStatsEmpty(t *testing.T) {
	f := newFixture(syncConfig(), nil)

	res := new(GetDashboardStatsResponse)
	require.NoError(t, f.analytics.GetDashboardStats(context.Background(), new(GetDashboardStatsRequest), res))

	assert.Equal(t, uint64(0), res.TotalSurveys)
	assert.Equal(t, uint64(0), res.CompletionRate)
	assert.Equal(t, 0.0, res.AvgResponseTime)
	assert.Equal(t, uint64(0), res.OpenRate)
}

func TestGetRecentSurveys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(syncConfig(), nil)

	for i, id := range []string{"s1", "s2", "s3"} {
		survey := f.seedSurvey(id, entity.SurveyStatusActive)
		survey.CreateTime = goutil.Uint64(uint64(100 + i))
		survey.TargetCount = goutil.Uint64(10)
		require.NoError(t, fakeSurveyRepo{f.store}.Update(ctx, survey))
	}
	require.NoError(t, f.response.SubmitSurveyResponse(ctx, &SubmitSurveyResponseRequest{
		SurveyID: goutil.String("s3"),
		Answers:  answers("q1", "Bad"),
	}, new(SubmitSurveyResponseResponse)))

	res := new(GetRecentSurveysResponse)
	require.NoError(t, f.analytics.GetRecentSurveys(ctx, &GetRecentSurveysRequest{
		Limit: goutil.Uint32(2),
	}, res))

	require.Len(t, res.Surveys, 2)
	assert.Equal(t, "s3", *res.Surveys[0].ID)
	assert.Equal(t, "s2", *res.Surveys[1].ID)
	assert.Equal(t, uint64(1), res.Surveys[0].Responses)
	assert.Equal(t, uint64(10), res.Surveys[0].Target)
	assert.Equal(t, uint64(10), res.Surveys[0].CompletionRate)

	err := f.analytics.GetRecentSurveys(ctx, &GetRecentSurveysRequest{
		Limit: goutil.Uint32(500),
	}, new(GetRecentSurveysResponse))
	assert.Error(t, err)
}
