// Package lifecycle moves listings through their states: submission, review,
// publication, expiry, resubmission and deletion, plus the bulk text imports.
//
// State lives in which table a record sits in (pending, listings, expired) and in
// the listing's visible flag. Notification side effects run after the state change
// and never undo it; their failures come back as warnings.
package lifecycle

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

const instrumentationName = "gitlab.com/subshare/subshare/internal/lifecycle"

// Announcer posts listings to the public channel.
type Announcer interface {
	Publish(ctx context.Context, l *models.Listing) (messageID int, err error)
	Edit(ctx context.Context, messageID int, l *models.Listing) error
	Remove(ctx context.Context, messageID int) error
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// Extractor reads a listing out of free text the marker parser could not handle.
type Extractor interface {
	ExtractListing(ctx context.Context, text string) (*models.Listing, error)
}

// Config tunes the controller.
type Config struct {
	// CodePrefix starts every listing code.
	CodePrefix string
	// ListingTTL is how long a member listing stays up after its added date.
	ListingTTL time.Duration
	// SupportEmail receives support messages and new-submission notices.
	SupportEmail string
	// Parser splits and parses chat imports.
	Parser *catalog.Parser
}

// Controller runs listing state transitions.
type Controller struct {
	stores    Stores
	tx        Transactor
	cfg       Config
	announcer Announcer
	mailer    Mailer
	extractor Extractor
	now       func() time.Time

	log         zerolog.Logger
	tracer      trace.Tracer
	transitions metric.Int64Counter
}

// Option configures optional collaborators.
type Option func(*Controller)

// WithAnnouncer enables channel announcements.
func WithAnnouncer(a Announcer) Option {
	return func(c *Controller) { c.announcer = a }
}

// WithMailer enables email notifications.
func WithMailer(m Mailer) Option {
	return func(c *Controller) { c.mailer = m }
}

// WithExtractor enables the fallback extractor for chat imports.
func WithExtractor(e Extractor) Option {
	return func(c *Controller) { c.extractor = e }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller over stores. tx must bind the same database as stores.
func New(stores Stores, tx Transactor, cfg Config, opts ...Option) *Controller {
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = catalog.DefaultCodePrefix
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 30 * 24 * time.Hour
	}
	if cfg.Parser == nil {
		cfg.Parser = &catalog.Parser{Separator: catalog.DefaultBatchSeparator}
	}

	c := &Controller{
		stores: stores,
		tx:     tx,
		cfg:    cfg,
		now:    time.Now,
		log:    logger.Component("lifecycle"),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"subshare.lifecycle.transitions",
		metric.WithDescription("Listing lifecycle operations by outcome"),
	)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to create transitions counter")
	}
	c.transitions = counter

	return c
}

// Stores returns the stores the controller writes to.
func (c *Controller) Stores() Stores {
	return c.stores
}

// CodePrefix returns the configured code prefix.
func (c *Controller) CodePrefix() string {
	return c.cfg.CodePrefix
}

// observe opens a span for op and returns the function that closes it with the outcome.
func (c *Controller) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := c.tracer.Start(ctx, "lifecycle."+op)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if c.transitions != nil {
			c.transitions.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", op),
				attribute.Bool("success", err == nil),
			))
		}
		span.End()
	}
}

func (c *Controller) today() string {
	return catalog.Today(c.now())
}
