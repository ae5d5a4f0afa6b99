package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/dep"
	"github.com/ayushbirla71/survey-backend/handler"
	"github.com/ayushbirla71/survey-backend/job/consume_campaigns"
	"github.com/ayushbirla71/survey-backend/job/run_campaigns"
	"github.com/ayushbirla71/survey-backend/pkg/logutil"
	"github.com/ayushbirla71/survey-backend/pkg/service"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		opt = config.NewOptions()
		ctx = logutil.InitZeroLog(context.Background(), config.LogLevelDebug)
	)

	if v := os.Getenv("CONFIG_PATH"); v != "" {
		opt.ConfigPath = v
	}

	cfg := config.NewConfig()
	if err := cfg.Load(ctx, opt.ConfigPath); err != nil {
		log.Ctx(ctx).Error().Msgf("load config failed: %v", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: job <run-campaigns|consume-campaigns>")
		os.Exit(1)
	}

	// base repo
	baseRepo, err := repo.NewBaseRepo(ctx, cfg.MetadataDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init base repo failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := baseRepo.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("close base repo failed, err: %v", err)
		}
	}()

	// redis is optional, jobs run without locks when it is absent
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = dep.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Ctx(ctx).Warn().Msgf("init redis client failed, running without locks: %v", err)
			redisClient = nil
		} else {
			defer func() {
				_ = redisClient.Close()
			}()
		}
	}

	// mail service
	mailService, err := dep.NewMailService(ctx, cfg.Mail)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init mail service failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := mailService.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("close mail service failed, err: %v", err)
		}
	}()

	var (
		baseCache          = repo.NewBaseCache(ctx)
		surveyRepo         = repo.NewSurveyRepo(ctx, baseRepo, baseCache)
		campaignRepo       = repo.NewCampaignRepo(ctx, baseRepo)
		recipientRepo      = repo.NewRecipientRepo(ctx, baseRepo)
		audienceMemberRepo = repo.NewAudienceMemberRepo(ctx, baseRepo)
		renderer           = handler.NewRenderer(cfg.Tracking)
		sendLoop           = handler.NewSendLoop(mailService, renderer, recipientRepo, cfg.Campaign.SendConcurrency)
	)

	// jobs only run campaigns, they never dispatch new ones
	campaignHandler := handler.NewCampaignHandler(cfg.Campaign, surveyRepo, campaignRepo, recipientRepo, audienceMemberRepo,
		handler.NewRecipientResolver(audienceMemberRepo, repo.NewAudienceSegmentRepo(ctx, baseRepo)), sendLoop, nil)

	jobs := map[string]service.Job{
		"run-campaigns":     run_campaigns.New(cfg.Campaign, redisClient, campaignRepo, campaignHandler),
		"consume-campaigns": consume_campaigns.New(cfg, redisClient, campaignHandler),
	}

	jobName := os.Args[1]
	job, exists := jobs[jobName]
	if !exists {
		log.Ctx(ctx).Error().Msgf("job %s not found", jobName)
		os.Exit(1)
	}

	if err := runJob(ctx, job); err != nil {
		log.Ctx(ctx).Error().Msgf("job %s failed: %v", jobName, err)
		os.Exit(1)
	}

	log.Ctx(ctx).Info().Msg("job executed successfully")
}

func runJob(ctx context.Context, job service.Job) error {
	if err := job.Init(ctx); err != nil {
		return fmt.Errorf("init job: %w", err)
	}

	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if err := job.CleanUp(ctx); err != nil {
		return fmt.Errorf("cleanup job: %w", err)
	}

	return nil
}
