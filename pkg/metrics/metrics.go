package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_campaign_emails_total",
			Help: "Campaign emails by send result",
		},
		[]string{"provider", "result"},
	)

	CampaignsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_campaigns_finalized_total",
			Help: "Campaigns that finished their send loop, by final status",
		},
		[]string{"status"},
	)

	TrackingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_tracking_events_total",
			Help: "Tracking hits by event type and whether a recipient transitioned",
		},
		[]string{"event", "transitioned"},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_queue_messages_total",
			Help: "Queue messages by direction, topic and result",
		},
		[]string{"direction", "topic", "result"},
	)
)

const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultHandled = "handled"
)

const (
	DirectionProduce = "produce"
	DirectionConsume = "consume"
)
