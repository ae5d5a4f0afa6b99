package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/metrics"
	"github.com/ayushbirla71/survey-backend/pkg/validator"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrCampaignNotDraft = errutil.ConflictError(errors.New("campaign is not in draft"))
)

type CampaignHandler interface {
	SendSurvey(ctx context.Context, req *SendSurveyRequest, res *SendSurveyResponse) error
	GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error
	GetCampaign(ctx context.Context, req *GetCampaignRequest, res *GetCampaignResponse) error

	// CreateCampaign stores a draft campaign with one pending recipient per member.
	CreateCampaign(ctx context.Context, survey *entity.Survey, members []*entity.AudienceMember, name, userID string) (*entity.Campaign, error)
	// RunCampaign claims a draft campaign, runs its send loop and finalizes it.
	RunCampaign(ctx context.Context, campaignID string) (*SendResult, error)
	CreateCampaignAndSend(ctx context.Context, survey *entity.Survey, members []*entity.AudienceMember, name, userID string) (*SendResult, error)
}

type campaignHandler struct {
	cfg                config.Campaign
	surveyRepo         repo.SurveyRepo
	campaignRepo       repo.CampaignRepo
	recipientRepo      repo.RecipientRepo
	audienceMemberRepo repo.AudienceMemberRepo
	resolver           RecipientResolver
	sendLoop           *SendLoop
	dispatcher         CampaignDispatcher
}

func NewCampaignHandler(
	cfg config.Campaign,
	surveyRepo repo.SurveyRepo,
	campaignRepo repo.CampaignRepo,
	recipientRepo repo.RecipientRepo,
	audienceMemberRepo repo.AudienceMemberRepo,
	resolver RecipientResolver,
	sendLoop *SendLoop,
	dispatcher CampaignDispatcher,
) CampaignHandler {
	return &campaignHandler{
		cfg:                cfg,
		surveyRepo:         surveyRepo,
		campaignRepo:       campaignRepo,
		recipientRepo:      recipientRepo,
		audienceMemberRepo: audienceMemberRepo,
		resolver:           resolver,
		sendLoop:           sendLoop,
		dispatcher:         dispatcher,
	}
}

type SendSurveyRequest struct {
	SurveyID         *string  `json:"survey_id,omitempty" validate:"required"`
	CampaignName     *string  `json:"campaign_name,omitempty" validate:"omitempty,max=255"`
	SelectedAudience []string `json:"selected_audience,omitempty" validate:"omitempty,dive,required"`
	// SegmentID sends to a saved segment instead of the survey criteria.
	SegmentID *string `json:"segment_id,omitempty" validate:"omitempty,excluded_with=SelectedAudience"`
}

func (r *SendSurveyRequest) GetSurveyID() string {
	if r != nil && r.SurveyID != nil {
		return *r.SurveyID
	}
	return ""
}

func (r *SendSurveyRequest) GetCampaignName() string {
	if r != nil && r.CampaignName != nil {
		return *r.CampaignName
	}
	return ""
}

type SendSurveyResponse struct {
	Campaign *entity.Campaign `json:"campaign,omitempty"`
	// Queued is set when the send runs in the background.
	Queued *bool    `json:"queued,omitempty"`
	Sent   *uint64  `json:"sent,omitempty"`
	Failed *uint64  `json:"failed,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func (h *campaignHandler) SendSurvey(ctx context.Context, req *SendSurveyRequest, res *SendSurveyResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	survey, err := h.surveyRepo.GetByID(ctx, req.GetSurveyID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, survey_id: %v", err, req.GetSurveyID())
		return err
	}

	var members []*entity.AudienceMember
	if req.SegmentID != nil && *req.SegmentID != "" {
		members, err = h.resolver.ResolveSegment(ctx, survey, *req.SegmentID)
	} else {
		members, err = h.resolver.Resolve(ctx, survey, req.SelectedAudience)
	}
	if err != nil {
		return err
	}

	name := req.GetCampaignName()
	if name == "" {
		name = fmt.Sprintf("Campaign for %s", survey.GetTitle())
	}

	userID := survey.GetUserID()
	if userID == "" {
		userID = h.cfg.DefaultUserID
	}

	campaign, err := h.CreateCampaign(ctx, survey, members, name, userID)
	if err != nil {
		return err
	}

	if h.cfg.SyncSend {
		result, err := h.RunCampaign(ctx, campaign.GetID())
		if err != nil {
			return err
		}

		campaign, err = h.campaignRepo.GetByID(ctx, campaign.GetID())
		if err != nil {
			log.Ctx(ctx).Error().Msgf("get campaign failed: %v, campaign_id: %v", err, result.CampaignID)
			return err
		}

		res.Campaign = campaign
		res.Queued = goutil.Bool(false)
		res.Sent = goutil.Uint64(result.Sent)
		res.Failed = goutil.Uint64(result.Failed)
		res.Errors = result.Errors

		return nil
	}

	// a campaign left in draft is picked up by the run-campaigns job
	queued := true
	if err := h.dispatcher.Dispatch(ctx, campaign.GetID()); err != nil {
		log.Ctx(ctx).Warn().Msgf("dispatch campaign failed: %v, campaign_id: %v", err, campaign.GetID())
		queued = false
	}

	res.Campaign = campaign
	res.Queued = goutil.Bool(queued)

	return nil
}

func (h *campaignHandler) CreateCampaign(ctx context.Context, survey *entity.Survey, members []*entity.AudienceMember, name, userID string) (*entity.Campaign, error) {
	if len(members) == 0 {
		return nil, ErrNoRecipients
	}

	var (
		now        = goutil.NowUnix()
		campaignID = uuid.NewString()
		recipients = make([]*entity.Recipient, 0, len(members))
		seen       = make(map[string]bool, len(members))
	)
	for _, member := range members {
		if seen[member.GetID()] {
			continue
		}
		seen[member.GetID()] = true

		recipients = append(recipients, &entity.Recipient{
			ID:               goutil.String(uuid.NewString()),
			CampaignID:       goutil.String(campaignID),
			AudienceMemberID: member.ID,
			Email:            member.Email,
			TrackingID:       goutil.String(uuid.NewString()),
			Status:           entity.RecipientStatusPending,
			CreateTime:       goutil.Uint64(now),
		})
	}

	campaign := &entity.Campaign{
		ID:             goutil.String(campaignID),
		SurveyID:       survey.ID,
		UserID:         goutil.String(userID),
		Name:           goutil.String(name),
		RecipientCount: goutil.Uint64(uint64(len(recipients))),
		SentCount:      goutil.Uint64(0),
		FailedCount:    goutil.Uint64(0),
		OpenedCount:    goutil.Uint64(0),
		RespondedCount: goutil.Uint64(0),
		Status:         entity.CampaignStatusDraft,
		CreateTime:     goutil.Uint64(now),
		UpdateTime:     goutil.Uint64(now),
	}

	if err := h.campaignRepo.CreateWithRecipients(ctx, campaign, recipients); err != nil {
		log.Ctx(ctx).Error().Msgf("create campaign failed: %v, survey_id: %v", err, survey.GetID())
		return nil, err
	}

	campaign.SurveyTitle = survey.Title

	return campaign, nil
}

func (h *campaignHandler) RunCampaign(ctx context.Context, campaignID string) (*SendResult, error) {
	campaign, err := h.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed: %v, campaign_id: %v", err, campaignID)
		return nil, err
	}

	if campaign.GetStatus() != entity.CampaignStatusDraft {
		return nil, ErrCampaignNotDraft
	}

	survey, err := h.surveyRepo.GetByID(ctx, campaign.GetSurveyID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get survey failed: %v, campaign_id: %v", err, campaignID)
		return nil, err
	}

	ok, err := h.campaignRepo.Transition(ctx, campaignID, entity.CampaignStatusSending, nil)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("claim campaign failed: %v, campaign_id: %v", err, campaignID)
		return nil, err
	}
	if !ok {
		return nil, ErrCampaignNotDraft
	}

	recipients, err := h.getPendingRecipients(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	result, err := h.sendLoop.SendTracked(ctx, survey, recipients, campaignID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("send loop aborted: %v, campaign_id: %v", err, campaignID)
		return nil, err
	}

	status := entity.FinalCampaignStatus(result.Failed)
	ok, err = h.campaignRepo.Transition(ctx, campaignID, status, &entity.Campaign{
		SentCount:   goutil.Uint64(result.Sent),
		FailedCount: goutil.Uint64(result.Failed),
		SentAt:      goutil.Uint64(goutil.NowUnix()),
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("finalize campaign failed: %v, campaign_id: %v", err, campaignID)
		return nil, err
	}
	if !ok {
		log.Ctx(ctx).Warn().Msgf("campaign finalized by another writer, campaign_id: %v", campaignID)
	}

	if err := h.surveyRepo.IncrStats(ctx, survey.GetID(), repo.SurveyStatsDelta{
		EmailsSent: result.Sent,
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("incr survey emails sent failed: %v, survey_id: %v", err, survey.GetID())
		return nil, err
	}

	metrics.CampaignsFinalizedTotal.WithLabelValues(status.String()).Inc()

	return result, nil
}

func (h *campaignHandler) CreateCampaignAndSend(ctx context.Context, survey *entity.Survey, members []*entity.AudienceMember, name, userID string) (*SendResult, error) {
	campaign, err := h.CreateCampaign(ctx, survey, members, name, userID)
	if err != nil {
		return nil, err
	}
	return h.RunCampaign(ctx, campaign.GetID())
}

// getPendingRecipients loads the recipients still to be sent, each with its audience member.
func (h *campaignHandler) getPendingRecipients(ctx context.Context, campaignID string) ([]*entity.Recipient, error) {
	recipients, _, err := h.recipientRepo.GetMany(ctx, &repo.RecipientFilter{
		CampaignID: goutil.String(campaignID),
		Status:     recipientStatusPtr(entity.RecipientStatusPending),
		OrderBy:    "create_time ASC, id ASC",
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get pending recipients failed: %v, campaign_id: %v", err, campaignID)
		return nil, err
	}

	if err := attachAudienceMembers(ctx, h.audienceMemberRepo, recipients); err != nil {
		log.Ctx(ctx).Error().Msgf("get recipient members failed: %v, campaign_id: %v", err, campaignID)
		return nil, err
	}

	return recipients, nil
}

type GetCampaignsRequest struct {
	SurveyID   *string          `schema:"survey_id" json:"survey_id,omitempty"`
	Pagination *repo.Pagination `schema:"pagination" json:"pagination,omitempty"`
}

type GetCampaignsResponse struct {
	Campaigns  []*entity.Campaign `json:"campaigns"`
	Pagination *repo.Pagination   `json:"pagination,omitempty"`
}

func (h *campaignHandler) GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	campaigns, pagination, err := h.campaignRepo.GetMany(ctx, &repo.CampaignFilter{
		SurveyID:   goutil.NilIfEmpty(req.SurveyID),
		Pagination: req.Pagination,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaigns failed: %v", err)
		return err
	}

	for _, campaign := range campaigns {
		h.setSurveyTitle(ctx, campaign)
	}

	res.Campaigns = campaigns
	res.Pagination = pagination

	return nil
}

type GetCampaignRequest struct {
	CampaignID *string `schema:"campaign_id" json:"campaign_id,omitempty" validate:"required"`
}

type GetCampaignResponse struct {
	Campaign *entity.Campaign `json:"campaign"`
}

func (h *campaignHandler) GetCampaign(ctx context.Context, req *GetCampaignRequest, res *GetCampaignResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	campaign, err := h.campaignRepo.GetByID(ctx, *req.CampaignID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed: %v, campaign_id: %v", err, *req.CampaignID)
		return err
	}
	h.setSurveyTitle(ctx, campaign)

	res.Campaign = campaign

	return nil
}

// setSurveyTitle is best effort. Surveys are served from the cache.
func (h *campaignHandler) setSurveyTitle(ctx context.Context, campaign *entity.Campaign) {
	survey, err := h.surveyRepo.GetByID(ctx, campaign.GetSurveyID())
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("get campaign survey failed: %v, campaign_id: %v", err, campaign.GetID())
		return
	}
	campaign.SurveyTitle = survey.Title
}

func recipientStatusPtr(s entity.RecipientStatus) *entity.RecipientStatus {
	return &s
}

func attachAudienceMembers(ctx context.Context, audienceMemberRepo repo.AudienceMemberRepo, recipients []*entity.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}

	ids := make([]string, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.GetAudienceMemberID())
	}

	members, _, err := audienceMemberRepo.GetMany(ctx, &repo.AudienceMemberFilter{
		IDs: ids,
	})
	if err != nil {
		return err
	}

	byID := make(map[string]*entity.AudienceMember, len(members))
	for _, m := range members {
		byID[m.GetID()] = m
	}
	for _, r := range recipients {
		r.AudienceMember = byID[r.GetAudienceMemberID()]
	}

	return nil
}
