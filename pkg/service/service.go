package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

type Service interface {
	Init() error
	Start() error
	Stop() error
}

// Job is a one-shot command run by name from job/main.go: Init, then Run, then CleanUp.
type Job interface {
	Init(ctx context.Context) error
	Run(ctx context.Context) error
	CleanUp(ctx context.Context) error
}

// Run starts s and blocks until SIGINT or SIGTERM, then stops it.
func Run(s Service) error {
	if err := s.Init(); err != nil {
		return err
	}

	if err := s.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Info().Msgf("received signal %v, stopping service", received)

	return s.Stop()
}
