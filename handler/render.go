package handler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/osteele/liquid"
)

const defaultRecipientName = "Valued Participant"

var defaultRatingOptions = []string{"1", "2", "3", "4", "5"}

type RenderedEmail struct {
	Subject string
	Html    string
}

// Renderer builds invitation mails and public survey pages. All links are rooted at the
// configured tracking base URL.
type Renderer struct {
	baseURL string
}

func NewRenderer(cfg config.Tracking) *Renderer {
	return &Renderer{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (r *Renderer) SurveyURL(surveyID string) string {
	return fmt.Sprintf("%s/survey/%s", r.baseURL, url.PathEscape(surveyID))
}

func (r *Renderer) TrackedSurveyURL(surveyID, trackingID string) string {
	if trackingID == "" {
		return r.SurveyURL(surveyID)
	}
	return fmt.Sprintf("%s?t=%s", r.SurveyURL(surveyID), url.QueryEscape(trackingID))
}

func (r *Renderer) PixelURL(trackingID string) string {
	return fmt.Sprintf("%s/track/open/%s", r.baseURL, url.PathEscape(trackingID))
}

func (r *Renderer) SubmitURL() string {
	return fmt.Sprintf("%s/api/public/v1%s", r.baseURL, config.PathSubmitSurveyResponse)
}

func (r *Renderer) RenderInvitation(survey *entity.Survey, member *entity.AudienceMember, trackingID string) (*RenderedEmail, error) {
	name := member.GetFullName()
	if name == "" {
		name = defaultRecipientName
	}

	html, err := invitationTmpl.RenderString(liquid.Bindings{
		"title":          survey.GetTitle(),
		"description":    survey.GetDescription(),
		"recipient_name": name,
		"survey_url":     r.TrackedSurveyURL(survey.GetID(), trackingID),
		"pixel_url":      r.PixelURL(trackingID),
	})
	if err != nil {
		return nil, fmt.Errorf("render invitation: %w", err)
	}

	return &RenderedEmail{
		Subject: fmt.Sprintf("Survey Invitation: %s", survey.GetTitle()),
		Html:    html,
	}, nil
}

type pageQuestion struct {
	ID       string
	Type     string
	Prompt   string
	Options  []string
	Required bool
	Multiple bool
}

type surveyPage struct {
	SurveyID    string
	TrackingID  string
	Title       string
	Description string
	SubmitURL   string
	Questions   []*pageQuestion
}

func (r *Renderer) RenderSurveyPage(survey *entity.Survey, trackingID string) ([]byte, error) {
	page := &surveyPage{
		SurveyID:    survey.GetID(),
		TrackingID:  trackingID,
		Title:       survey.GetTitle(),
		Description: survey.GetDescription(),
		SubmitURL:   r.SubmitURL(),
		Questions:   make([]*pageQuestion, 0, len(survey.Questions)),
	}

	for i, q := range survey.Questions {
		id := q.GetID()
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}

		pq := &pageQuestion{
			ID:       id,
			Type:     q.GetType(),
			Prompt:   q.GetQuestion(),
			Required: q.Required != nil && *q.Required,
		}

		switch q.GetType() {
		case "single_choice":
			pq.Options = q.Options
		case "multiple_choice":
			pq.Options = q.Options
			pq.Multiple = true
		case "rating":
			pq.Options = q.Options
			if len(pq.Options) == 0 {
				pq.Options = defaultRatingOptions
			}
		case "yes_no":
			pq.Options = []string{"Yes", "No"}
		}

		page.Questions = append(page.Questions, pq)
	}

	var buf bytes.Buffer
	if err := surveyPageTmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render survey page: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderClosedPage renders the notice shown in place of the form once a survey stops taking responses.
func (r *Renderer) RenderClosedPage(survey *entity.Survey) ([]byte, error) {
	var buf bytes.Buffer
	if err := closedPageTmpl.Execute(&buf, &surveyPage{
		SurveyID: survey.GetID(),
		Title:    survey.GetTitle(),
	}); err != nil {
		return nil, fmt.Errorf("render closed page: %w", err)
	}
	return buf.Bytes(), nil
}
