package handler

import (
	"context"
	"testing"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipientsWithStatus(statuses ...entity.RecipientStatus) []*entity.Recipient {
	res := make([]*entity.Recipient, 0, len(statuses))
	for _, s := range statuses {
		res = append(res, &entity.Recipient{Status: s})
	}
	return res
}

func TestComputeCampaignStats(t *testing.T) {
	tests := []struct {
		name       string
		recipients []*entity.Recipient
		want       *CampaignStats
	}{
		{
			name: "empty",
			want: &CampaignStats{},
		},
		{
			name: "nothing delivered",
			recipients: recipientsWithStatus(
				entity.RecipientStatusPending,
				entity.RecipientStatusFailed,
			),
			want: &CampaignStats{Total: 2, Pending: 1, Failed: 1},
		},
		{
			name: "mixed",
			recipients: recipientsWithStatus(
				entity.RecipientStatusSent,
				entity.RecipientStatusOpened,
				entity.RecipientStatusResponded,
				entity.RecipientStatusFailed,
			),
			want: &CampaignStats{
				Total:        4,
				Sent:         3,
				Failed:       1,
				Opened:       2,
				Responded:    1,
				OpenRate:     67,
				ResponseRate: 33,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCampaignStats(tt.recipients)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.OpenRate, uint64(100))
			assert.LessOrEqual(t, got.ResponseRate, uint64(100))
		})
	}
}

func TestAggregateAnswers(t *testing.T) {
	questions := []*entity.Question{
		{ID: goutil.String("q1"), Type: goutil.String("single_choice"), Options: []string{"Good", "Bad"}},
		{ID: goutil.String("q2"), Type: goutil.String("multiple_choice"), Options: []string{"A", "B", "C"}},
		{ID: goutil.String("q3"), Type: goutil.String("rating")},
		{ID: goutil.String("q4"), Type: goutil.String("text")},
	}
	responses := []*entity.SurveyResponse{
		{Answers: answers("q1", "Good", "q2", []interface{}{"A", "C"}, "q3", float64(5), "q4", "great")},
		{Answers: answers("q1", "Good", "q2", []interface{}{"A"}, "q3", float64(4), "q9", "ignored")},
		{Answers: answers("q1", "Bad", "q4", "")},
	}

	results := AggregateAnswers(questions, responses)
	require.Len(t, results, 4)

	assert.Equal(t, uint64(3), results[0].Answered)
	assert.Equal(t, map[string]uint64{"Good": 2, "Bad": 1}, results[0].Counts)

	assert.Equal(t, uint64(2), results[1].Answered)
	assert.Equal(t, map[string]uint64{"A": 2, "B": 0, "C": 1}, results[1].Counts)

	assert.Equal(t, map[string]uint64{"5": 1, "4": 1}, results[2].Counts)

	assert.Equal(t, uint64(1), results[3].Answered)
	assert.Nil(t, results[3].Counts)
	assert.Equal(t, []string{"great"}, results[3].TextAnswers)
}

func TestGetCampaignAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(syncConfig(), map[string]error{
		"email2": assert.AnError,
	})
	campaignID, recipients := sentCampaign(t, f, "s1", 3)
	f.tracking.OnEmailOpen(ctx, recipients[0].GetTrackingID())

	res := new(GetCampaignAnalyticsResponse)
	require.NoError(t, f.analytics.GetCampaignAnalytics(ctx, &GetCampaignAnalyticsRequest{
		CampaignID: goutil.String(campaignID),
	}, res))

	assert.Equal(t, entity.CampaignStatusPartiallyFailed, res.Campaign.GetStatus())
	assert.Equal(t, &CampaignStats{
		Total:        3,
		Sent:         2,
		Failed:       1,
		Opened:       1,
		OpenRate:     50,
		ResponseRate: 0,
	}, res.Stats)
	for _, r := range res.Recipients {
		assert.NotNil(t, r.AudienceMember)
	}
}

func TestGetSurveyResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(syncConfig(), nil)
	_, recipients := sentCampaign(t, f, "s1", 1)
	_ = fakeAudienceMemberRepo{f.store}.Update(ctx, &entity.AudienceMember{
		ID:       goutil.String("m1"),
		Email:    goutil.String("email1"),
		AgeGroup: goutil.String("25-34"),
		Country:  goutil.String("India"),
	})

	submit := func(token *string, completion uint64) {
		require.NoError(t, f.response.SubmitSurveyResponse(ctx, &SubmitSurveyResponseRequest{
			SurveyID:       goutil.String("s1"),
			TrackingID:     token,
			Answers:        answers("q1", "Good"),
			CompletionTime: goutil.Uint64(completion),
		}, new(SubmitSurveyResponseResponse)))
	}
	submit(recipients[0].TrackingID, 30)
	submit(nil, 61)

	res := new(GetSurveyResultsResponse)
	require.NoError(t, f.analytics.GetSurveyResults(ctx, &GetSurveyResultsRequest{
		SurveyID: goutil.String("s1"),
	}, res))

	assert.Equal(t, uint64(2), res.TotalResponses)
	assert.Equal(t, 45.5, res.AvgCompletionTime)
	assert.Equal(t, uint64(2), res.Questions[0].Counts["Good"])
	assert.Equal(t, uint64(1), res.Demographics.Anonymous)
	assert.Equal(t, map[string]uint64{"25-34": 1}, res.Demographics.AgeGroups)
	assert.Equal(t, map[string]uint64{"unknown": 1}, res.Demographics.Genders)
	assert.Equal(t, map[string]uint64{"India": 1}, res.Demographics.Countries)
}

func TestGetSurveyDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(syncConfig(), nil)
	_, recipients := sentCampaign(t, f, "s1", 2)
	f.tracking.OnSurveyAccess(ctx, "s1", recipients[0].GetTrackingID())
	f.tracking.OnSurveyAccess(ctx, "s1", "")

	res := new(GetSurveyDetailsResponse)
	require.NoError(t, f.analytics.GetSurveyDetails(ctx, &GetSurveyDetailsRequest{
		SurveyID: goutil.String("s1"),
	}, res))

	assert.Equal(t, uint64(2), *res.PageViews)
	assert.Equal(t, uint64(2), res.Survey.GetEmailsSent())
	assert.Equal(t, uint64(1), res.Survey.GetEmailsOpened())
	require.NotNil(t, res.EmailStats)
	assert.Equal(t, uint64(1), res.EmailStats.CampaignCount)
	assert.Equal(t, uint64(2), res.EmailStats.Sent)
	assert.Equal(t, uint64(1), res.EmailStats.Opened)
	assert.Equal(t, uint64(50), res.EmailStats.OpenRate)
}
