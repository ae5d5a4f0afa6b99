package handler

import (
	"testing"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererURLs(t *testing.T) {
	r := NewRenderer(config.Tracking{BaseURL: "https://surveys.example.com/"})

	assert.Equal(t, "https://surveys.example.com/survey/s1", r.SurveyURL("s1"))
	assert.Equal(t, "https://surveys.example.com/survey/s1?t=tok", r.TrackedSurveyURL("s1", "tok"))
	assert.Equal(t, "https://surveys.example.com/survey/s1", r.TrackedSurveyURL("s1", ""))
	assert.Equal(t, "https://surveys.example.com/track/open/tok", r.PixelURL("tok"))
	assert.Equal(t, "https://surveys.example.com/api/public/v1/submit_survey_response", r.SubmitURL())
}

func TestRenderInvitation(t *testing.T) {
	r := NewRenderer(config.Tracking{BaseURL: testBaseURL})
	survey := &entity.Survey{
		ID:          goutil.String("s1"),
		Title:       goutil.String("Tools <& Tips>"),
		Description: goutil.String("Quick one"),
	}

	tests := []struct {
		name     string
		member   *entity.AudienceMember
		wantName string
	}{
		{
			name: "named member",
			member: &entity.AudienceMember{
				FirstName: goutil.String("Asha"),
				LastName:  goutil.String("Rao"),
			},
			wantName: "Dear Asha Rao,",
		},
		{
			name:     "unnamed member",
			member:   &entity.AudienceMember{},
			wantName: "Dear Valued Participant,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := r.RenderInvitation(survey, tt.member, "tok-1")
			require.NoError(t, err)

			assert.Equal(t, "Survey Invitation: Tools <& Tips>", email.Subject)
			assert.Contains(t, email.Html, tt.wantName)
			assert.Contains(t, email.Html, "Tools &lt;&amp; Tips&gt;")
			assert.NotContains(t, email.Html, "Tools <& Tips>")
			assert.Contains(t, email.Html, testBaseURL+"/survey/s1?t=tok-1")
			assert.Contains(t, email.Html, testBaseURL+"/track/open/tok-1")
			assert.Contains(t, email.Html, "Quick one")
		})
	}
}

func TestRenderSurveyPage(t *testing.T) {
	r := NewRenderer(config.Tracking{BaseURL: testBaseURL})
	survey := &entity.Survey{
		ID:    goutil.String("s1"),
		Title: goutil.String("<script>alert(1)</script>"),
		Questions: []*entity.Question{
			{Type: goutil.String("rating"), Question: goutil.String("Rate us")},
			{ID: goutil.String("yn"), Type: goutil.String("yes_no"), Question: goutil.String("Again?")},
			{ID: goutil.String("free"), Type: goutil.String("text"), Question: goutil.String("Why?")},
		},
	}

	page, err := r.RenderSurveyPage(survey, "tok-1")
	require.NoError(t, err)

	html := string(page)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "Rate us")
	assert.Contains(t, html, "q1")
	assert.Contains(t, html, "Yes")
	assert.Contains(t, html, "tok-1")
	assert.Contains(t, html, "submit_survey_response")
}
