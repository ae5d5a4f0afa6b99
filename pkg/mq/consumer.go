package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidBalanceStrategy = errors.New("invalid balance strategy")
	ErrInvalidInitialOffset   = errors.New("invalid initial offset")
	ErrNoHandler              = errors.New("no handler registered")
)

type HandlerFunc func(ctx context.Context, msg *Message) error

var (
	handlerLock sync.RWMutex
	handlers    = make(map[Payload]HandlerFunc)
)

// RegisterHandler binds fn to payload. It panics on a nil fn or a second registration.
func RegisterHandler(payload Payload, fn HandlerFunc) {
	handlerLock.Lock()
	defer handlerLock.Unlock()

	if fn == nil {
		panic(fmt.Sprintf("nil handler for payload %s", payload))
	}

	if _, ok := handlers[payload]; ok {
		panic(fmt.Sprintf("payload %s already has a handler", payload))
	}

	handlers[payload] = fn
}

func handlerFor(payload Payload) (HandlerFunc, bool) {
	handlerLock.RLock()
	defer handlerLock.RUnlock()
	fn, ok := handlers[payload]
	return fn, ok
}

type ConsumerConfig struct {
	Brokers         []string `json:"brokers,omitempty" yaml:"brokers"`
	Topic           string   `json:"topic,omitempty" yaml:"topic"`
	ConsumerGroup   string   `json:"consumer_group,omitempty" yaml:"consumer_group"`
	BalanceStrategy string   `json:"balance_strategy,omitempty" yaml:"balance_strategy"`
	InitialOffset   string   `json:"initial_offset,omitempty" yaml:"initial_offset"`
}

var balanceStrategies = []string{"sticky", "roundrobin", "range"}

var initialOffsets = []string{"newest", "oldest"}

func (c *ConsumerConfig) validate() error {
	if len(c.Brokers) == 0 {
		return ErrEmptyBrokers
	}

	if c.Topic == "" {
		return ErrEmptyTopicName
	}

	if c.BalanceStrategy != "" && !goutil.ContainsStr(balanceStrategies, c.BalanceStrategy) {
		return ErrInvalidBalanceStrategy
	}

	if c.InitialOffset != "" && !goutil.ContainsStr(initialOffsets, c.InitialOffset) {
		return ErrInvalidInitialOffset
	}

	return nil
}

func (c *ConsumerConfig) saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	if c.InitialOffset == "oldest" {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	var strategy sarama.BalanceStrategy
	switch c.BalanceStrategy {
	case "sticky":
		strategy = sarama.NewBalanceStrategySticky()
	case "roundrobin":
		strategy = sarama.NewBalanceStrategyRoundRobin()
	default:
		strategy = sarama.NewBalanceStrategyRange()
	}
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{strategy}

	return cfg
}

// Consumer joins a consumer group and routes every message to the handler of its payload.
// Messages are marked after handling whatever the outcome; a failed campaign run is
// recovered by the run-campaigns sweeper, not by redelivery.
type Consumer struct {
	cfg    ConsumerConfig
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	client sarama.ConsumerGroup
	ready  chan struct{}
}

func NewConsumer(ctx context.Context, cfg ConsumerConfig) (*Consumer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, cfg.saramaConfig())
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)

	c := &Consumer{
		cfg:    cfg,
		ctx:    subCtx,
		client: client,
		cancel: cancel,
		ready:  make(chan struct{}),
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run()
	}()

	select {
	case <-c.ready:
	case <-subCtx.Done():
		return nil, errors.Join(subCtx.Err(), c.Close())
	}

	log.Ctx(c.ctx).Info().Msgf("consumer is up and running, topic: %s, group: %s", cfg.Topic, cfg.ConsumerGroup)

	return c, nil
}

// run keeps rejoining the group until the consumer is closed, backing off between failed sessions.
func (c *Consumer) run() {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0

	for {
		if c.ctx.Err() != nil {
			return
		}

		err := c.client.Consume(c.ctx, []string{c.cfg.Topic}, c)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return
		}

		if err != nil {
			wait := b.NextBackOff()
			log.Ctx(c.ctx).Error().Msgf("consume session failed: %v, retry in %v", err, wait)
			select {
			case <-time.After(wait):
			case <-c.ctx.Done():
				return
			}
			continue
		}

		b.Reset()
	}
}

func (c *Consumer) Close() error {
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (c *Consumer) Setup(_ sarama.ConsumerGroupSession) error {
	select {
	case <-c.ready:
	default:
		close(c.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case m, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			ctx := log.Ctx(c.ctx).With().
				Str("log_id", uuid.NewString()).
				Str("topic", m.Topic).
				Int64("offset", m.Offset).
				Logger().WithContext(c.ctx)

			result := metrics.ResultHandled
			if err := handleMessage(ctx, m.Value); err != nil {
				result = metrics.ResultFailed
				log.Ctx(ctx).Error().Msgf("handle message failed: %v", err)
			}
			metrics.MessagesTotal.WithLabelValues(metrics.DirectionConsume, m.Topic, result).Inc()

			session.MarkMessage(m, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// handleMessage decodes a raw message and routes it to the handler registered for its payload.
func handleMessage(ctx context.Context, value []byte) error {
	start := time.Now()

	msg := new(Message)
	if err := json.Unmarshal(value, msg); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}

	fn, ok := handlerFor(msg.Payload)
	if !ok {
		return fmt.Errorf("%w, payload: %s", ErrNoHandler, msg.Payload)
	}

	if err := fn(ctx, msg); err != nil {
		return fmt.Errorf("handle %s: %w", msg.Payload, err)
	}

	log.Ctx(ctx).Debug().Msgf("%s message handled, key: %s, proctm: %vms", msg.Payload, msg.Key, time.Since(start).Milliseconds())

	return nil
}
