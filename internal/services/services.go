// Package services holds the use cases behind the HTTP API. Every operation
// resolves the session from ctx, performs one store call and keeps derived
// reads consistent by invalidating the user's cached views.
package services

import (
	"context"
	"errors"

	"betledger/internal/auth"
	"betledger/internal/core"
	"betledger/internal/csvimport"
	"betledger/internal/log"
	"betledger/internal/metrics"
)

// ErrNoValidRows is returned by an import in which every row was rejected.
var ErrNoValidRows = errors.New("no valid rows found in CSV")

// EventPublisher announces entry changes to other processes. Publishing is
// best-effort: failures are logged and never fail the user action.
type EventPublisher interface {
	PublishEntryChanged(ctx context.Context, userID, date string) error
}

// Options carries the optional collaborators shared by the services. Pass
// the same Views to every service so that any write reaches the dashboards.
type Options struct {
	Views     *Views
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Logger    *log.Logger
}

type base struct {
	views     *Views
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *log.Logger
}

func newBase(opts Options, component string) base {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	views := opts.Views
	if views == nil {
		views = NewViews(nil)
	}
	return base{
		views:     views,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger.WithComponent(component),
	}
}

// invalidate drops every cached view of the user.
func (b *base) invalidate(ctx context.Context, userID string) {
	if n := b.views.invalidate(ctx, userID); n > 0 {
		b.logger.DebugContext(ctx, "Invalidated cached views", log.FieldUserID, userID, "keys", n)
	}
}

func (b *base) publish(ctx context.Context, userID string, date core.Date) {
	if b.publisher == nil {
		return
	}
	err := b.publisher.PublishEntryChanged(ctx, userID, date.String())
	b.metrics.EventPublished(err)
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to publish entry change",
			log.NewFields().WithUser(userID).WithOperation(log.OpPublish).WithError(err, log.ErrorTypeNetwork).ToSlice()...)
	}
}

func session(ctx context.Context) (string, error) {
	s, err := auth.Require(ctx)
	if err != nil {
		return "", err
	}
	return s.UserID, nil
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrNegativeAmount,
	core.ErrNonPositiveAmount,
	core.ErrInvalidDate,
	core.ErrInvalidMonth,
	core.ErrInvalidEntryKind,
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidStake,
	core.ErrInvalidBetType,
	core.ErrInvalidVerificationStatus,
	core.ErrInvalidDoneStatus,
	core.ErrEmptyPatch,
	csvimport.ErrMissingDateColumn,
	csvimport.ErrEmpty,
	ErrNoValidRows,
}

// IsValidation reports whether err is a rejection of user input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
