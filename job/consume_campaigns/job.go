package consume_campaigns

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/handler"
	"github.com/ayushbirla71/survey-backend/pkg/distlock"
	"github.com/ayushbirla71/survey-backend/pkg/mq"
	"github.com/ayushbirla71/survey-backend/pkg/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrEmptyCampaignID = errors.New("empty campaign id")

// ConsumeCampaigns runs the send loop of every campaign published to the run-campaign topic.
type ConsumeCampaigns struct {
	cfg         *config.Config
	redisClient *redis.Client
	runner      handler.CampaignRunner
	consumer    *mq.Consumer
}

func New(cfg *config.Config, redisClient *redis.Client, runner handler.CampaignRunner) service.Job {
	return &ConsumeCampaigns{
		cfg:         cfg,
		redisClient: redisClient,
		runner:      runner,
	}
}

func (h *ConsumeCampaigns) Init(_ context.Context) error {
	mq.RegisterHandler(mq.PayloadRunCampaign, h.HandleRunCampaign)
	return nil
}

// Run consumes until SIGINT or SIGTERM.
func (h *ConsumeCampaigns) Run(ctx context.Context) error {
	consumer, err := mq.NewConsumer(ctx, h.cfg.Consumer)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init consumer failed: %v", err)
		return err
	}
	h.consumer = consumer

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Ctx(ctx).Info().Msgf("received signal %v, stopping consumer", received)

	return nil
}

func (h *ConsumeCampaigns) HandleRunCampaign(ctx context.Context, msg *mq.Message) error {
	body := new(mq.RunCampaign)
	if err := msg.ParseBody(body); err != nil {
		return err
	}

	campaignID := body.GetCampaignID()
	if campaignID == "" {
		return ErrEmptyCampaignID
	}

	ctx = log.Ctx(ctx).With().Str("campaign_id", campaignID).Logger().WithContext(ctx)

	run := func(ctx context.Context) error {
		res, err := h.runner.RunCampaign(ctx, campaignID)
		if err != nil {
			// redelivered message of a campaign that already ran
			if errors.Is(err, handler.ErrCampaignNotDraft) {
				log.Ctx(ctx).Info().Msg("campaign is not in draft, skipping")
				return nil
			}
			return err
		}

		log.Ctx(ctx).Info().Msgf("campaign finished, sent: %d, failed: %d", res.Sent, res.Failed)
		return nil
	}

	if h.redisClient == nil {
		return run(ctx)
	}

	ttl := time.Duration(h.cfg.Campaign.LockTTLSeconds) * time.Second
	err := distlock.WithLock(ctx, h.redisClient, fmt.Sprintf("campaign:%s", campaignID), ttl, run)
	if errors.Is(err, distlock.ErrNotAcquired) {
		log.Ctx(ctx).Info().Msg("campaign is being run by another consumer, skipping")
		return nil
	}

	return err
}

func (h *ConsumeCampaigns) CleanUp(_ context.Context) error {
	if h.consumer == nil {
		return nil
	}
	return h.consumer.Close()
}
