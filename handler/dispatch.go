package handler

import (
	"context"
	"errors"

	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/mq"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("campaign queue is full")
)

// CampaignDispatcher hands a draft campaign to a worker that runs its send loop. Dispatch must not
// wait for the send.
type CampaignDispatcher interface {
	Dispatch(ctx context.Context, campaignID string) error
}

type CampaignRunner interface {
	RunCampaign(ctx context.Context, campaignID string) (*SendResult, error)
}

type MessageSender interface {
	SendMessage(ctx context.Context, msg *mq.Message) error
}

type mqDispatcher struct {
	producer MessageSender
}

func NewMQDispatcher(producer MessageSender) CampaignDispatcher {
	return &mqDispatcher{
		producer: producer,
	}
}

func (d *mqDispatcher) Dispatch(ctx context.Context, campaignID string) error {
	return d.producer.SendMessage(ctx, &mq.Message{
		Payload: mq.PayloadRunCampaign,
		Key:     campaignID,
		Body: &mq.RunCampaign{
			CampaignID: goutil.String(campaignID),
		},
	})
}

// LocalDispatcher runs campaigns in-process from a bounded queue. A full queue is reported to the
// caller instead of blocking it.
type LocalDispatcher struct {
	queue   chan string
	workers int
}

func NewLocalDispatcher(queueSize, workers int) *LocalDispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &LocalDispatcher{
		queue:   make(chan string, queueSize),
		workers: workers,
	}
}

func (d *LocalDispatcher) Dispatch(_ context.Context, campaignID string) error {
	select {
	case d.queue <- campaignID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run drains the queue until ctx is done, running at most workers campaigns at a time. It returns
// only after every campaign it started has finished.
func (d *LocalDispatcher) Run(ctx context.Context, runner CampaignRunner) error {
	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case campaignID := <-d.queue:
			g.Go(func() error {
				// detach from the caller so a shutdown does not cut a send loop in half
				runCtx := log.Ctx(ctx).With().
					Str("log_id", uuid.NewString()).
					Str("campaign_id", campaignID).
					Logger().WithContext(context.WithoutCancel(ctx))

				res, err := runner.RunCampaign(runCtx, campaignID)
				if err != nil {
					log.Ctx(runCtx).Error().Msgf("run campaign failed: %v", err)
					return nil
				}

				log.Ctx(runCtx).Info().Msgf("campaign finished, sent: %d, failed: %d", res.Sent, res.Failed)
				return nil
			})
		}
	}
}
