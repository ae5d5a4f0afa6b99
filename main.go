package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/dep"
	"github.com/ayushbirla71/survey-backend/handler"
	"github.com/ayushbirla71/survey-backend/middleware"
	"github.com/ayushbirla71/survey-backend/pkg/logutil"
	"github.com/ayushbirla71/survey-backend/pkg/mq"
	"github.com/ayushbirla71/survey-backend/pkg/router"
	"github.com/ayushbirla71/survey-backend/pkg/service"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const (
	apiBasePath     = "/api/v1"
	shutdownTimeout = 10 * time.Second
)

type server struct {
	ctx    context.Context
	cancel context.CancelFunc
	opt    *config.Option
	cfg    *config.Config

	logWriter   io.WriteCloser
	baseRepo    repo.BaseRepo
	redisClient *redis.Client
	mailService dep.MailService
	producer    *mq.Producer
	httpServer  *http.Server

	// closed once the local dispatcher has finished its in-flight campaigns
	dispatcherDone chan struct{}

	// api handlers
	surveyHandler    handler.SurveyHandler
	audienceHandler  handler.AudienceHandler
	segmentHandler   handler.SegmentHandler
	campaignHandler  handler.CampaignHandler
	analyticsHandler handler.AnalyticsHandler
	trackingHandler  handler.TrackingHandler
	responseHandler  handler.ResponseHandler
}

func main() {
	s := new(server)
	if err := service.Run(s); err != nil {
		log.Fatal().Msg(err.Error())
	}
}

func (s *server) Init() error {
	opt := config.NewOptions()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		opt.LogLevel = logLevel
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		opt.ConfigPath = configPath
	}

	if serverPort := os.Getenv("PORT"); serverPort != "" {
		if port, err := strconv.Atoi(serverPort); err == nil {
			opt.Port = port
		}
	}

	s.opt = opt

	return nil
}

func (s *server) Start() error {
	var err error

	// ====== init logger ===== //

	s.ctx = logutil.InitZeroLog(context.Background(), s.opt.LogLevel)

	// ===== init config ===== //

	s.cfg = config.NewConfig()
	if err = s.cfg.Load(s.ctx, s.opt.ConfigPath); err != nil {
		log.Ctx(s.ctx).Error().Msgf("load config failed, err: %v", err)
		return err
	}

	if s.logWriter = logutil.NewFileWriter(s.cfg.Log); s.logWriter != nil {
		s.ctx = logutil.InitZeroLog(context.Background(), s.opt.LogLevel, s.logWriter)
	}

	s.ctx, s.cancel = context.WithCancel(s.ctx)

	// ===== init deps ===== //

	s.baseRepo, err = repo.NewBaseRepo(s.ctx, s.cfg.MetadataDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init base repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil {
			if err := s.baseRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
			}
		}
	}()

	if s.cfg.MetadataDB.AutoMigrate {
		if err = repo.Migrate(s.ctx, s.baseRepo); err != nil {
			log.Ctx(s.ctx).Error().Msgf("migrate schema failed, err: %v", err)
			return err
		}
	}

	// redis only guards background jobs, the server runs without it
	if s.cfg.Redis.Addr != "" {
		redisClient, redisErr := dep.NewRedisClient(s.ctx, s.cfg.Redis)
		if redisErr != nil {
			log.Ctx(s.ctx).Warn().Msgf("init redis client failed, continuing without redis: %v", redisErr)
		} else {
			s.redisClient = redisClient
		}
	}

	s.mailService, err = dep.NewMailService(s.ctx, s.cfg.Mail)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init mail service failed, err: %v", err)
		return err
	}

	// ===== init repos ===== //

	var (
		baseCache          = repo.NewBaseCache(s.ctx)
		surveyRepo         = repo.NewSurveyRepo(s.ctx, s.baseRepo, baseCache)
		campaignRepo       = repo.NewCampaignRepo(s.ctx, s.baseRepo)
		recipientRepo      = repo.NewRecipientRepo(s.ctx, s.baseRepo)
		audienceMemberRepo = repo.NewAudienceMemberRepo(s.ctx, s.baseRepo)
		segmentRepo        = repo.NewAudienceSegmentRepo(s.ctx, s.baseRepo)
		trackingEventRepo  = repo.NewTrackingEventRepo(s.ctx, s.baseRepo)
		surveyResponseRepo = repo.NewSurveyResponseRepo(s.ctx, s.baseRepo)
	)

	// ===== init dispatcher ===== //

	var (
		dispatcher      handler.CampaignDispatcher
		localDispatcher *handler.LocalDispatcher
	)
	if s.cfg.Producer.Enabled() {
		s.producer, err = mq.NewProducer(s.ctx, s.cfg.Producer)
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init producer failed, err: %v", err)
			return err
		}
		dispatcher = handler.NewMQDispatcher(s.producer)
	} else {
		localDispatcher = handler.NewLocalDispatcher(s.cfg.Campaign.QueueSize, s.cfg.Campaign.Workers)
		dispatcher = localDispatcher
	}

	// ===== init handlers ===== //

	var (
		renderer = handler.NewRenderer(s.cfg.Tracking)
		sendLoop = handler.NewSendLoop(s.mailService, renderer, recipientRepo, s.cfg.Campaign.SendConcurrency)
	)

	s.surveyHandler = handler.NewSurveyHandler(s.cfg.Campaign, surveyRepo, renderer)
	s.audienceHandler = handler.NewAudienceHandler(s.cfg.Campaign, audienceMemberRepo)
	s.segmentHandler = handler.NewSegmentHandler(segmentRepo, audienceMemberRepo)
	s.campaignHandler = handler.NewCampaignHandler(s.cfg.Campaign, surveyRepo, campaignRepo, recipientRepo, audienceMemberRepo,
		handler.NewRecipientResolver(audienceMemberRepo, segmentRepo), sendLoop, dispatcher)
	s.analyticsHandler = handler.NewAnalyticsHandler(surveyRepo, campaignRepo, recipientRepo, audienceMemberRepo,
		trackingEventRepo, surveyResponseRepo)
	s.trackingHandler = handler.NewTrackingHandler(s.baseRepo, surveyRepo, campaignRepo, recipientRepo, trackingEventRepo, renderer)
	s.responseHandler = handler.NewResponseHandler(s.baseRepo, surveyRepo, campaignRepo, recipientRepo, surveyResponseRepo)

	if localDispatcher != nil {
		s.dispatcherDone = make(chan struct{})
		go func() {
			defer close(s.dispatcherDone)
			if err := localDispatcher.Run(s.ctx, s.campaignHandler); err != nil {
				log.Ctx(s.ctx).Error().Msgf("local dispatcher stopped, err: %v", err)
			}
		}()
	}

	// ===== start server ===== //

	addr := fmt.Sprintf(":%d", s.opt.Port)
	s.httpServer = &http.Server{
		BaseContext: func(_ net.Listener) context.Context {
			return s.ctx
		},
		Addr:    addr,
		Handler: middleware.Log(cors.AllowAll().Handler(s.registerRoutes())),
	}

	go func() {
		log.Ctx(s.ctx).Info().Msgf("starting HTTP server at %s", addr)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fail to start HTTP server, err: %v", err)
		}
	}()

	return nil
}

func (s *server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("shutdown HTTP server failed, err: %v", err)
		}
	}

	// stops the local dispatcher from taking new campaigns
	if s.cancel != nil {
		s.cancel()
	}

	// running send loops still need the db and the mail service
	if s.dispatcherDone != nil {
		log.Ctx(s.ctx).Info().Msg("waiting for in-flight campaigns")
		<-s.dispatcherDone
	}

	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close producer failed, err: %v", err)
		}
	}

	if s.mailService != nil {
		if err := s.mailService.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close mail service failed, err: %v", err)
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close redis client failed, err: %v", err)
		}
	}

	if s.baseRepo != nil {
		if err := s.baseRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
			return err
		}
	}

	if s.logWriter != nil {
		_ = s.logWriter.Close()
	}

	return nil
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct{}

func (s *server) registerRoutes() http.Handler {
	r := &router.HttpRouter{
		Router: mux.NewRouter(),
	}
	r.Use(middleware.Metrics)

	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathHealthCheck,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(HealthCheckRequest),
			Res: new(HealthCheckResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return nil
			},
		},
	})

	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	s.registerSurveyRoutes(r)
	s.registerAudienceRoutes(r)
	s.registerCampaignRoutes(r)
	s.registerPublicRoutes(r)

	return r
}

func (s *server) registerSurveyRoutes(r *router.HttpRouter) {
	// create_survey
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathCreateSurvey,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.CreateSurveyRequest),
			Res: new(handler.CreateSurveyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.CreateSurvey(ctx, req.(*handler.CreateSurveyRequest), res.(*handler.CreateSurveyResponse))
			},
		},
	})

	// get_survey
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetSurvey,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetSurveyRequest),
			Res: new(handler.GetSurveyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.GetSurvey(ctx, req.(*handler.GetSurveyRequest), res.(*handler.GetSurveyResponse))
			},
		},
	})

	// get_surveys
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetSurveys,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetSurveysRequest),
			Res: new(handler.GetSurveysResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.GetSurveys(ctx, req.(*handler.GetSurveysRequest), res.(*handler.GetSurveysResponse))
			},
		},
	})

	// update_survey
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathUpdateSurvey,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.UpdateSurveyRequest),
			Res: new(handler.UpdateSurveyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.UpdateSurvey(ctx, req.(*handler.UpdateSurveyRequest), res.(*handler.UpdateSurveyResponse))
			},
		},
	})

	// delete_survey
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathDeleteSurvey,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.DeleteSurveyRequest),
			Res: new(handler.DeleteSurveyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.DeleteSurvey(ctx, req.(*handler.DeleteSurveyRequest), res.(*handler.DeleteSurveyResponse))
			},
		},
	})

	// duplicate_survey
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathDuplicateSurvey,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.DuplicateSurveyRequest),
			Res: new(handler.DuplicateSurveyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.DuplicateSurvey(ctx, req.(*handler.DuplicateSurveyRequest), res.(*handler.DuplicateSurveyResponse))
			},
		},
	})

	// create_survey_html
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathCreateSurveyHtml,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.CreateSurveyHtmlRequest),
			Res: new(handler.CreateSurveyHtmlResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.CreateSurveyHtml(ctx, req.(*handler.CreateSurveyHtmlRequest), res.(*handler.CreateSurveyHtmlResponse))
			},
		},
	})

	// get_categories
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetCategories,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetCategoriesRequest),
			Res: new(handler.GetCategoriesResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.GetCategories(ctx, req.(*handler.GetCategoriesRequest), res.(*handler.GetCategoriesResponse))
			},
		},
	})

	// get_survey_details
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetSurveyDetails,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetSurveyDetailsRequest),
			Res: new(handler.GetSurveyDetailsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.analyticsHandler.GetSurveyDetails(ctx, req.(*handler.GetSurveyDetailsRequest), res.(*handler.GetSurveyDetailsResponse))
			},
		},
	})

	// get_survey_results
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetSurveyResults,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetSurveyResultsRequest),
			Res: new(handler.GetSurveyResultsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.analyticsHandler.GetSurveyResults(ctx, req.(*handler.GetSurveyResultsRequest), res.(*handler.GetSurveyResultsResponse))
			},
		},
	})

	// get_survey_responses
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetSurveyResponses,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetSurveyResponsesRequest),
			Res: new(handler.GetSurveyResponsesResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.responseHandler.GetSurveyResponses(ctx, req.(*handler.GetSurveyResponsesRequest), res.(*handler.GetSurveyResponsesResponse))
			},
		},
	})

	// get_dashboard_stats
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetDashboardStats,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetDashboardStatsRequest),
			Res: new(handler.GetDashboardStatsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.analyticsHandler.GetDashboardStats(ctx, req.(*handler.GetDashboardStatsRequest), res.(*handler.GetDashboardStatsResponse))
			},
		},
	})

	// get_recent_surveys
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetRecentSurveys,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetRecentSurveysRequest),
			Res: new(handler.GetRecentSurveysResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.analyticsHandler.GetRecentSurveys(ctx, req.(*handler.GetRecentSurveysRequest), res.(*handler.GetRecentSurveysResponse))
			},
		},
	})
}

func (s *server) registerAudienceRoutes(r *router.HttpRouter) {
	// create_audience_member
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathCreateAudienceMember,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.CreateAudienceMemberRequest),
			Res: new(handler.CreateAudienceMemberResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.audienceHandler.CreateAudienceMember(ctx, req.(*handler.CreateAudienceMemberRequest), res.(*handler.CreateAudienceMemberResponse))
			},
		},
	})

	// get_audience_member
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetAudienceMember,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetAudienceMemberRequest),
			Res: new(handler.GetAudienceMemberResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.audienceHandler.GetAudienceMember(ctx, req.(*handler.GetAudienceMemberRequest), res.(*handler.GetAudienceMemberResponse))
			},
		},
	})

	// get_audience_members
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetAudienceMembers,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetAudienceMembersRequest),
			Res: new(handler.GetAudienceMembersResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.audienceHandler.GetAudienceMembers(ctx, req.(*handler.GetAudienceMembersRequest), res.(*handler.GetAudienceMembersResponse))
			},
		},
	})

	// update_audience_member
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathUpdateAudienceMember,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.UpdateAudienceMemberRequest),
			Res: new(handler.UpdateAudienceMemberResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.audienceHandler.UpdateAudienceMember(ctx, req.(*handler.UpdateAudienceMemberRequest), res.(*handler.UpdateAudienceMemberResponse))
			},
		},
	})

	// import_audience_members
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathImportAudienceMembers,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.ImportAudienceMembersRequest),
			Res: new(handler.ImportAudienceMembersResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.audienceHandler.ImportAudienceMembers(ctx, req.(*handler.ImportAudienceMembersRequest), res.(*handler.ImportAudienceMembersResponse))
			},
		},
	})

	// get_audience_stats
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetAudienceStats,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetAudienceStatsRequest),
			Res: new(handler.GetAudienceStatsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.audienceHandler.GetAudienceStats(ctx, req.(*handler.GetAudienceStatsRequest), res.(*handler.GetAudienceStatsResponse))
			},
		},
	})

	// create_audience_segment
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathCreateAudienceSegment,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.CreateAudienceSegmentRequest),
			Res: new(handler.CreateAudienceSegmentResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.segmentHandler.CreateAudienceSegment(ctx, req.(*handler.CreateAudienceSegmentRequest), res.(*handler.CreateAudienceSegmentResponse))
			},
		},
	})

	// get_audience_segment
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetAudienceSegment,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetAudienceSegmentRequest),
			Res: new(handler.GetAudienceSegmentResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.segmentHandler.GetAudienceSegment(ctx, req.(*handler.GetAudienceSegmentRequest), res.(*handler.GetAudienceSegmentResponse))
			},
		},
	})

	// get_audience_segments
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetAudienceSegments,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetAudienceSegmentsRequest),
			Res: new(handler.GetAudienceSegmentsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.segmentHandler.GetAudienceSegments(ctx, req.(*handler.GetAudienceSegmentsRequest), res.(*handler.GetAudienceSegmentsResponse))
			},
		},
	})

	// export_audience_members
	r.RegisterRawRoute(http.MethodGet, apiBasePath+config.PathExportAudienceMembers, s.audienceHandler.ServeExport)
}

func (s *server) registerCampaignRoutes(r *router.HttpRouter) {
	// send_survey
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathSendSurvey,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.SendSurveyRequest),
			Res: new(handler.SendSurveyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.SendSurvey(ctx, req.(*handler.SendSurveyRequest), res.(*handler.SendSurveyResponse))
			},
		},
	})

	// get_campaigns
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetCampaigns,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetCampaignsRequest),
			Res: new(handler.GetCampaignsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaigns(ctx, req.(*handler.GetCampaignsRequest), res.(*handler.GetCampaignsResponse))
			},
		},
	})

	// get_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetCampaign,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetCampaignRequest),
			Res: new(handler.GetCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaign(ctx, req.(*handler.GetCampaignRequest), res.(*handler.GetCampaignResponse))
			},
		},
	})

	// get_campaign_analytics
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetCampaignAnalytics,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetCampaignAnalyticsRequest),
			Res: new(handler.GetCampaignAnalyticsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.analyticsHandler.GetCampaignAnalytics(ctx, req.(*handler.GetCampaignAnalyticsRequest), res.(*handler.GetCampaignAnalyticsResponse))
			},
		},
	})
}

// registerPublicRoutes mounts what respondents reach from an invitation email.
func (s *server) registerPublicRoutes(r *router.HttpRouter) {
	// get_survey
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:     config.PathGetSurvey,
		Method:   http.MethodGet,
		IsPublic: true,
		Handler: router.Handler{
			Req: new(handler.GetSurveyRequest),
			Res: new(handler.GetSurveyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.surveyHandler.GetSurvey(ctx, req.(*handler.GetSurveyRequest), res.(*handler.GetSurveyResponse))
			},
		},
	})

	// submit_survey_response
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:     config.PathSubmitSurveyResponse,
		Method:   http.MethodPost,
		IsPublic: true,
		Handler: router.Handler{
			Req: new(handler.SubmitSurveyResponseRequest),
			Res: new(handler.SubmitSurveyResponseResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.responseHandler.SubmitSurveyResponse(ctx, req.(*handler.SubmitSurveyResponseRequest), res.(*handler.SubmitSurveyResponseResponse))
			},
		},
	})

	r.RegisterRawRoute(http.MethodGet, config.PathOnEmailOpen, s.trackingHandler.ServeOpenPixel)
	r.RegisterRawRoute(http.MethodGet, config.PathSurveyPage, s.trackingHandler.ServeSurveyPage)
}
