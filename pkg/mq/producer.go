package mq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/ayushbirla71/survey-backend/pkg/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyBrokers       = errors.New("empty brokers")
	ErrEmptyTopics        = errors.New("empty topics")
	ErrEmptyTopicName     = errors.New("empty topic name")
	ErrUnsupportedPayload = errors.New("unsupported payload")
)

type Message struct {
	Payload Payload     `json:"payload"`
	Key     string      `json:"key,omitempty"`
	Body    interface{} `json:"body,omitempty"`
}

// ParseBody decodes the generic body into dst, which is usually a pointer to a payload struct.
func (msg *Message) ParseBody(dst interface{}) error {
	b, err := json.Marshal(msg.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// ProducerConfig maps payload names, such as run_campaign, to topics.
type ProducerConfig struct {
	Brokers []string          `json:"brokers,omitempty" yaml:"brokers"`
	Topics  map[string]string `json:"topics,omitempty" yaml:"topics"`
}

func (c *ProducerConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c *ProducerConfig) topicsByPayload() (map[Payload]string, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrEmptyBrokers
	}

	if len(c.Topics) == 0 {
		return nil, ErrEmptyTopics
	}

	topics := make(map[Payload]string, len(c.Topics))
	for name, topic := range c.Topics {
		if topic == "" {
			return nil, ErrEmptyTopicName
		}

		payload, ok := ParsePayload(name)
		if !ok {
			return nil, ErrUnsupportedPayload
		}
		topics[payload] = topic
	}

	return topics, nil
}

type Producer struct {
	saramaProducer sarama.AsyncProducer
	topics         map[Payload]string
}

func NewProducer(ctx context.Context, cfg ProducerConfig) (*Producer, error) {
	topics, err := cfg.topicsByPayload()
	if err != nil {
		return nil, err
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Flush.Frequency = 500 * time.Millisecond
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Return.Errors = true

	// brokers may still be starting up alongside the service
	var producer sarama.AsyncProducer
	if err := backoff.Retry(func() error {
		var err error
		producer, err = sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
		if err != nil {
			log.Ctx(ctx).Warn().Msgf("connect kafka producer failed, retrying: %v", err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)); err != nil {
		return nil, err
	}

	go func() {
		// a campaign whose message is lost stays in draft until the sweeper picks it up
		for err := range producer.Errors() {
			key, _ := err.Msg.Key.Encode()
			metrics.MessagesTotal.WithLabelValues(metrics.DirectionProduce, err.Msg.Topic, metrics.ResultFailed).Inc()
			log.Ctx(ctx).Error().Msgf("produce message failed: %v, topic: %s, key: %s", err.Err, err.Msg.Topic, key)
		}
	}()

	return &Producer{
		saramaProducer: producer,
		topics:         topics,
	}, nil
}

func (p *Producer) Close() error {
	return p.saramaProducer.Close()
}

// SendMessage queues msg on the topic of its payload. Delivery failures are only logged.
func (p *Producer) SendMessage(ctx context.Context, msg *Message) error {
	topic, ok := p.topics[msg.Payload]
	if !ok {
		return ErrUnsupportedPayload
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	saramaMsg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.Key),
		Value: sarama.ByteEncoder(b),
	}

	select {
	case p.saramaProducer.Input() <- saramaMsg:
		metrics.MessagesTotal.WithLabelValues(metrics.DirectionProduce, topic, metrics.ResultSent).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
