package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// Config represents NATS event publishing configuration
type Config struct {
	Enabled  bool           `yaml:"enabled"`
	Address  string         `yaml:"address"`
	Subjects SubjectsConfig `yaml:"subjects"`
}

// SubjectsConfig represents the subjects lifecycle events are published on
type SubjectsConfig struct {
	RentalCreated  string `yaml:"rental_created"`
	ListingShared  string `yaml:"listing_shared"`
	ListingUpdated string `yaml:"listing_updated"`
}

// Publisher emits marketplace lifecycle events over NATS. A nil Publisher
// is valid and publishes nothing, so event wiring stays optional.
type Publisher struct {
	nc       *nats.Conn
	subjects SubjectsConfig
	logger   *zap.Logger
}

// Connect establishes a connection to the NATS server with reconnect
// handling.
func Connect(cfg *Config, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(
		cfg.Address,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second*2),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Warn("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Address, err)
	}

	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return &Publisher{nc: nc, subjects: cfg.Subjects, logger: logger}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}

// RentalCreatedEvent announces a successful booking.
type RentalCreatedEvent struct {
	Rental    *models.Rental  `json:"rental"`
	Listing   *models.Listing `json:"sharedMembership"`
	Timestamp time.Time       `json:"timestamp"`
}

// ListingEvent announces a listing being shared or updated.
type ListingEvent struct {
	Listing   *models.Listing `json:"sharedMembership"`
	Timestamp time.Time       `json:"timestamp"`
}

// PublishRentalCreated publishes a rental-created event. Publishing is
// best-effort; failures are logged, never surfaced to the caller.
func (p *Publisher) PublishRentalCreated(rental *models.Rental, listing *models.Listing) {
	if p == nil {
		return
	}
	p.publish(p.subjects.RentalCreated, &RentalCreatedEvent{
		Rental:    rental,
		Listing:   listing,
		Timestamp: time.Now().UTC(),
	})
}

// PublishListingShared publishes a listing-shared event.
func (p *Publisher) PublishListingShared(listing *models.Listing) {
	if p == nil {
		return
	}
	p.publish(p.subjects.ListingShared, &ListingEvent{
		Listing:   listing,
		Timestamp: time.Now().UTC(),
	})
}

// PublishListingUpdated publishes a listing-updated event.
func (p *Publisher) PublishListingUpdated(listing *models.Listing) {
	if p == nil {
		return
	}
	p.publish(p.subjects.ListingUpdated, &ListingEvent{
		Listing:   listing,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) publish(subject string, event interface{}) {
	if p == nil || p.nc == nil || subject == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}

	if err := p.nc.Publish(subject, payload); err != nil {
		p.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
