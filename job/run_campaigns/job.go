package run_campaigns

import (
	"context"
	"errors"
	"time"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/handler"
	"github.com/ayushbirla71/survey-backend/pkg/distlock"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/service"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	lockKey     = "run-campaigns"
	concurrency = 10
)

// RunCampaigns sends draft campaigns that were never picked up by a dispatcher, for example because
// the local queue was full or the process restarted before draining it.
type RunCampaigns struct {
	cfg          config.Campaign
	redisClient  *redis.Client
	campaignRepo repo.CampaignRepo
	runner       handler.CampaignRunner
}

func New(cfg config.Campaign, redisClient *redis.Client, campaignRepo repo.CampaignRepo, runner handler.CampaignRunner) service.Job {
	return &RunCampaigns{
		cfg:          cfg,
		redisClient:  redisClient,
		campaignRepo: campaignRepo,
		runner:       runner,
	}
}

func (h *RunCampaigns) Init(_ context.Context) error {
	return nil
}

func (h *RunCampaigns) Run(ctx context.Context) error {
	if h.redisClient == nil {
		log.Ctx(ctx).Warn().Msg("no redis client, running campaigns without lock")
		return h.run(ctx)
	}

	ttl := time.Duration(h.cfg.LockTTLSeconds) * time.Second

	err := distlock.WithLock(ctx, h.redisClient, lockKey, ttl, h.run)
	if errors.Is(err, distlock.ErrNotAcquired) {
		log.Ctx(ctx).Info().Msg("another run-campaigns job holds the lock, skipping")
		return nil
	}

	return err
}

func (h *RunCampaigns) run(ctx context.Context) error {
	var (
		status = entity.CampaignStatusDraft
		before = goutil.NowUnix() - h.cfg.StaleDraftSeconds
	)

	campaigns, _, err := h.campaignRepo.GetMany(ctx, &repo.CampaignFilter{
		Status:        &status,
		CreateTimeLte: goutil.Uint64(before),
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get draft campaigns failed: %v", err)
		return err
	}

	log.Ctx(ctx).Info().Msgf("number of campaigns to be processed: %d", len(campaigns))

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for _, campaign := range campaigns {
		campaignID := campaign.GetID()
		g.Go(func() error {
			res, err := h.runner.RunCampaign(ctx, campaignID)
			if err != nil {
				// lost the claim to another worker
				if errors.Is(err, handler.ErrCampaignNotDraft) {
					return nil
				}
				log.Ctx(ctx).Error().Msgf("[campaign ID %s] run campaign failed: %v", campaignID, err)
				return nil
			}

			log.Ctx(ctx).Info().Msgf("[campaign ID %s] campaign finished, sent: %d, failed: %d", campaignID, res.Sent, res.Failed)
			return nil
		})
	}

	return g.Wait()
}

func (h *RunCampaigns) CleanUp(_ context.Context) error {
	return nil
}
