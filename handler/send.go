package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/ayushbirla71/survey-backend/dep"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/metrics"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type SendResult struct {
	CampaignID string   `json:"campaign_id,omitempty"`
	Sent       uint64   `json:"sent"`
	Failed     uint64   `json:"failed"`
	Errors     []string `json:"errors"`
}

// SendLoop delivers one invitation per recipient and records each outcome on the recipient row.
// A transport error only fails that recipient. A persistence error stops the loop.
type SendLoop struct {
	mailService   dep.MailService
	renderer      *Renderer
	recipientRepo repo.RecipientRepo
	concurrency   int
}

func NewSendLoop(mailService dep.MailService, renderer *Renderer, recipientRepo repo.RecipientRepo, concurrency int) *SendLoop {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SendLoop{
		mailService:   mailService,
		renderer:      renderer,
		recipientRepo: recipientRepo,
		concurrency:   concurrency,
	}
}

func (l *SendLoop) SendTracked(ctx context.Context, survey *entity.Survey, recipients []*entity.Recipient, campaignID string) (*SendResult, error) {
	var (
		mu     sync.Mutex
		result = &SendResult{
			CampaignID: campaignID,
			Errors:     make([]string, 0),
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, recipient := range recipients {
		if gctx.Err() != nil {
			break
		}

		recipient := recipient
		g.Go(func() error {
			sendErr := l.send(ctx, survey, recipient, campaignID)

			to, errMsg := entity.RecipientStatusSent, ""
			if sendErr != nil {
				to, errMsg = entity.RecipientStatusFailed, sendErr.Error()
			}

			ok, err := l.recipientRepo.TransitionByID(ctx, recipient.GetID(), to, errMsg)
			if err != nil {
				log.Ctx(ctx).Error().Msgf("update recipient status failed: %v, recipient_id: %v", err, recipient.GetID())
				return err
			}
			if !ok {
				log.Ctx(ctx).Warn().Msgf("recipient no longer pending, recipient_id: %v", recipient.GetID())
				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			if sendErr != nil {
				log.Ctx(ctx).Error().Msgf("send invitation failed: %v, email: %v, campaign_id: %v", sendErr, recipient.GetEmail(), campaignID)
				metrics.EmailsTotal.WithLabelValues(l.mailService.Provider(), metrics.ResultFailed).Inc()
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", recipient.GetEmail(), errMsg))
				return nil
			}

			metrics.EmailsTotal.WithLabelValues(l.mailService.Provider(), metrics.ResultSent).Inc()
			result.Sent++

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (l *SendLoop) send(ctx context.Context, survey *entity.Survey, recipient *entity.Recipient, campaignID string) error {
	email, err := l.renderer.RenderInvitation(survey, recipient.AudienceMember, recipient.GetTrackingID())
	if err != nil {
		return err
	}

	return l.mailService.SendEmail(ctx, &dep.Email{
		To:      recipient.GetEmail(),
		ToName:  recipient.AudienceMember.GetFullName(),
		Subject: email.Subject,
		Html:    email.Html,
		Tags: map[string]string{
			"campaign_id": campaignID,
			"survey_id":   survey.GetID(),
		},
	})
}
