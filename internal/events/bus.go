// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/metrics"
)

const metadataEventType = "event_type"

// ShortLinkEvictor forgets a cached short-link resolution.
type ShortLinkEvictor interface {
	Delete(code string)
}

// BusConfig holds router settings.
type BusConfig struct {
	// CloseTimeout is how long handlers get to finish on shutdown.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration

	// OutputBuffer is the per-subscriber channel buffer of the pub/sub.
	OutputBuffer int64
}

// DefaultBusConfig returns production defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		OutputBuffer:         256,
	}
}

// Bus publishes events and, while Serve runs, consumes them.
type Bus struct {
	config BusConfig
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	evictor ShortLinkEvictor

	mu      sync.Mutex
	running chan struct{}
}

// NewBus creates a bus. evictor may be nil.
func NewBus(cfg BusConfig, evictor ShortLinkEvictor) *Bus {
	logger := watermill.NewSlogLogger(logging.NewComponentSlogLogger("events"))
	return &Bus{
		config: cfg,
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputBuffer,
		}, logger),
		logger:  logger,
		evictor: evictor,
		running: make(chan struct{}),
	}
}

// Publish sends e on its topic. Failures are logged and counted.
func (b *Bus) Publish(ctx context.Context, e Event) {
	log := logging.Ctx(ctx)
	payload, err := e.marshal()
	if err != nil {
		metrics.RecordEventPublishError(e.Type)
		log.Error().Err(err).Str("event_type", e.Type).Msg("Failed to encode domain event")
		return
	}

	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set(metadataEventType, e.Type)
	if err := b.pubsub.Publish(e.Type, msg); err != nil {
		metrics.RecordEventPublishError(e.Type)
		log.Error().Err(err).Str("event_type", e.Type).Msg("Failed to publish domain event")
	}
}

// Serve runs the consuming router until ctx is canceled. It implements
// suture.Service; each run builds a fresh router because a Watermill router
// cannot be restarted.
func (b *Bus) Serve(ctx context.Context) error {
	router, err := b.newRouter()
	if err != nil {
		return err
	}

	go func() {
		<-router.Running()
		b.mu.Lock()
		select {
		case <-b.running:
		default:
			close(b.running)
		}
		b.mu.Unlock()
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// Running is closed once the router has started for the first time.
func (b *Bus) Running() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// String names the service in supervisor logs.
func (b *Bus) String() string {
	return "event-bus"
}

// Close shuts the pub/sub down. Call after Serve has returned.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

func (b *Bus) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: b.config.CloseTimeout}, b.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      b.config.RetryMaxRetries,
		InitialInterval: b.config.RetryInitialInterval,
		Logger:          b.logger,
	}
	router.AddMiddleware(retry.Middleware)

	for _, topic := range Types {
		router.AddConsumerHandler("metrics."+topic, topic, b.pubsub, countEvent)
	}
	if b.evictor != nil {
		router.AddConsumerHandler("shortlink-eviction", RecipeDeleted, b.pubsub, b.evictShortLink)
	}
	return router, nil
}

// countEvent increments domain_events_total.
func countEvent(msg *message.Message) error {
	e, err := unmarshal(msg.Payload)
	if err != nil {
		// Retrying will not fix a malformed payload.
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed domain event")
		return nil
	}
	metrics.RecordDomainEvent(e.Type)
	return nil
}

func (b *Bus) evictShortLink(msg *message.Message) error {
	e, err := unmarshal(msg.Payload)
	if err != nil {
		return nil
	}
	if e.ShortLink != "" {
		b.evictor.Delete(e.ShortLink)
		logging.Debug().Str("short_link", e.ShortLink).Int64("recipe_id", e.RecipeID).Msg("Evicted short link")
	}
	return nil
}
