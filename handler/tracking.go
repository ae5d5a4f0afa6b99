package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/httputil"
	"github.com/ayushbirla71/survey-backend/pkg/metrics"
	"github.com/ayushbirla71/survey-backend/pkg/router"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const anonTrackingPrefix = "anon-"

// transparent 1x1 png
var pixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func Pixel() []byte {
	return pixel
}

// TrackingHandler correlates opens and page visits back to recipients. Its errors never reach
// mail clients or survey visitors.
type TrackingHandler interface {
	// OnEmailOpen reports whether the recipient moved from sent to opened.
	OnEmailOpen(ctx context.Context, trackingID string) bool
	// OnSurveyAccess always records the visit and reports whether a recipient moved to opened.
	OnSurveyAccess(ctx context.Context, surveyID, trackingID string) bool

	ServeOpenPixel(w http.ResponseWriter, r *http.Request)
	ServeSurveyPage(w http.ResponseWriter, r *http.Request)
}

type trackingHandler struct {
	txService         repo.TxService
	surveyRepo        repo.SurveyRepo
	campaignRepo      repo.CampaignRepo
	recipientRepo     repo.RecipientRepo
	trackingEventRepo repo.TrackingEventRepo
	renderer          *Renderer
}

func NewTrackingHandler(
	txService repo.TxService,
	surveyRepo repo.SurveyRepo,
	campaignRepo repo.CampaignRepo,
	recipientRepo repo.RecipientRepo,
	trackingEventRepo repo.TrackingEventRepo,
	renderer *Renderer,
) TrackingHandler {
	return &trackingHandler{
		txService:         txService,
		surveyRepo:        surveyRepo,
		campaignRepo:      campaignRepo,
		recipientRepo:     recipientRepo,
		trackingEventRepo: trackingEventRepo,
		renderer:          renderer,
	}
}

func (h *trackingHandler) OnEmailOpen(ctx context.Context, trackingID string) bool {
	opened, err := h.onEmailOpen(ctx, trackingID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("track email open failed: %v, tracking_id: %v", err, trackingID)
	}
	metrics.TrackingEventsTotal.WithLabelValues(entity.TrackingEventTypeOpen.String(), fmt.Sprint(opened)).Inc()
	return opened
}

func (h *trackingHandler) onEmailOpen(ctx context.Context, trackingID string) (bool, error) {
	if trackingID == "" {
		return false, nil
	}

	recipient, campaign, err := h.getRecipientCampaign(ctx, trackingID)
	if err != nil {
		if errutil.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if recipient.GetStatus() != entity.RecipientStatusSent {
		return false, nil
	}

	var opened bool
	err = h.txService.RunTx(ctx, func(ctx context.Context) error {
		var err error
		opened, err = h.markOpened(ctx, recipient, campaign)
		if err != nil || !opened {
			return err
		}
		return h.trackingEventRepo.Create(ctx, newTrackingEvent(ctx, campaign.GetSurveyID(), recipient, trackingID, entity.TrackingEventTypeOpen))
	})
	if err != nil {
		return false, err
	}

	return opened, nil
}

func (h *trackingHandler) OnSurveyAccess(ctx context.Context, surveyID, trackingID string) bool {
	opened, err := h.onSurveyAccess(ctx, surveyID, trackingID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("track survey access failed: %v, survey_id: %v, tracking_id: %v", err, surveyID, trackingID)
	}
	metrics.TrackingEventsTotal.WithLabelValues(entity.TrackingEventTypeSurveyAccess.String(), fmt.Sprint(opened)).Inc()
	return opened
}

func (h *trackingHandler) onSurveyAccess(ctx context.Context, surveyID, trackingID string) (bool, error) {
	var (
		recipient *entity.Recipient
		campaign  *entity.Campaign
	)
	if trackingID != "" {
		var err error
		recipient, campaign, err = h.getRecipientCampaign(ctx, trackingID)
		if err != nil && !errutil.IsNotFound(err) {
			return false, err
		}
		// a token from another survey's campaign is recorded but not correlated
		if campaign.GetSurveyID() != surveyID {
			recipient, campaign = nil, nil
		}
	} else {
		trackingID = anonTrackingPrefix + uuid.NewString()
	}

	if err := h.trackingEventRepo.Create(ctx, newTrackingEvent(ctx, surveyID, recipient, trackingID, entity.TrackingEventTypeSurveyAccess)); err != nil {
		return false, err
	}

	if recipient.GetStatus() != entity.RecipientStatusSent {
		return false, nil
	}

	var opened bool
	err := h.txService.RunTx(ctx, func(ctx context.Context) error {
		var err error
		opened, err = h.markOpened(ctx, recipient, campaign)
		return err
	})

	return opened, err
}

// markOpened moves recipient from sent to opened and bumps the campaign and survey open counters
// only when this call won the transition.
func (h *trackingHandler) markOpened(ctx context.Context, recipient *entity.Recipient, campaign *entity.Campaign) (bool, error) {
	return markOpened(ctx, h.recipientRepo, h.campaignRepo, h.surveyRepo, recipient, campaign)
}

func markOpened(
	ctx context.Context,
	recipientRepo repo.RecipientRepo,
	campaignRepo repo.CampaignRepo,
	surveyRepo repo.SurveyRepo,
	recipient *entity.Recipient,
	campaign *entity.Campaign,
) (bool, error) {
	ok, err := recipientRepo.TransitionByTrackingID(ctx, recipient.GetTrackingID(), entity.RecipientStatusOpened)
	if err != nil || !ok {
		return false, err
	}

	if err := campaignRepo.IncrCounters(ctx, campaign.GetID(), repo.CampaignCountersDelta{
		OpenedCount: 1,
	}); err != nil {
		return false, err
	}

	if err := surveyRepo.IncrStats(ctx, campaign.GetSurveyID(), repo.SurveyStatsDelta{
		EmailsOpened: 1,
	}); err != nil {
		return false, err
	}

	return true, nil
}

func (h *trackingHandler) getRecipientCampaign(ctx context.Context, trackingID string) (*entity.Recipient, *entity.Campaign, error) {
	return getRecipientCampaign(ctx, h.recipientRepo, h.campaignRepo, trackingID)
}

func getRecipientCampaign(ctx context.Context, recipientRepo repo.RecipientRepo, campaignRepo repo.CampaignRepo, trackingID string) (*entity.Recipient, *entity.Campaign, error) {
	recipient, err := recipientRepo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, nil, err
	}

	campaign, err := campaignRepo.GetByID(ctx, recipient.GetCampaignID())
	if err != nil {
		return nil, nil, err
	}

	return recipient, campaign, nil
}

func newTrackingEvent(ctx context.Context, surveyID string, recipient *entity.Recipient, trackingID string, eventType entity.TrackingEventType) *entity.TrackingEvent {
	client := router.GetClientInfo(ctx)

	var recipientID *string
	if recipient != nil {
		recipientID = recipient.ID
	}

	return &entity.TrackingEvent{
		ID:          goutil.String(uuid.NewString()),
		SurveyID:    goutil.String(surveyID),
		RecipientID: recipientID,
		TrackingID:  goutil.String(trackingID),
		EventType:   eventType,
		IPAddress:   goutil.NilIfEmpty(goutil.String(client.IPAddress)),
		UserAgent:   goutil.NilIfEmpty(goutil.String(client.UserAgent)),
		CreateTime:  goutil.Uint64(goutil.NowUnix()),
	}
}

// ServeOpenPixel always answers with the pixel, whatever happened to the tracking update.
func (h *trackingHandler) ServeOpenPixel(w http.ResponseWriter, r *http.Request) {
	h.OnEmailOpen(r.Context(), mux.Vars(r)["tracking_id"])
	httputil.ReturnNoCache(w, "image/png", pixel)
}

func (h *trackingHandler) ServeSurveyPage(w http.ResponseWriter, r *http.Request) {
	var (
		ctx        = r.Context()
		surveyID   = mux.Vars(r)["survey_id"]
		trackingID = r.URL.Query().Get("t")
	)

	survey, err := h.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, surveyID)
		code := http.StatusInternalServerError
		if errutil.IsNotFound(err) {
			code = http.StatusNotFound
		}
		http.Error(w, http.StatusText(code), code)
		return
	}

	if survey.IsClosed() {
		page, err := h.renderer.RenderClosedPage(survey)
		if err != nil {
			log.Ctx(ctx).Error().Msgf("render closed page failed: %v, survey_id: %v", err, surveyID)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		httputil.ReturnNoCache(w, "text/html; charset=utf-8", page)
		return
	}

	page, err := h.renderer.RenderSurveyPage(survey, trackingID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("render survey page failed: %v, survey_id: %v", err, surveyID)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.OnSurveyAccess(ctx, surveyID, trackingID)

	httputil.ReturnNoCache(w, "text/html; charset=utf-8", page)
}
