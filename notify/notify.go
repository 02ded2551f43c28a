// Package notify announces menu changes to every user by email and, when
// configured, to a Discord channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mess-management-api/logger"
	"mess-management-api/mailer"
	"mess-management-api/metrics"
	"mess-management-api/models"

	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 8
	publishTimeout     = 2 * time.Minute
)

// UserLister supplies the recipients of a notification
type UserLister interface {
	ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error)
}

// ChannelPoster posts a message to a shared chat channel
type ChannelPoster interface {
	Post(ctx context.Context, content string) error
}

// Dispatcher fans a menu change out to all recipients
type Dispatcher struct {
	mailer      mailer.Mailer
	users       UserLister
	poster      ChannelPoster
	log         *logger.Logger
	metrics     *metrics.Metrics
	concurrency int

	wg sync.WaitGroup
}

// NewDispatcher builds a dispatcher; poster may be nil
func NewDispatcher(m mailer.Mailer, users UserLister, poster ChannelPoster, log *logger.Logger, mt *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		mailer:      m,
		users:       users,
		poster:      poster,
		log:         log.Named("notify"),
		metrics:     mt,
		concurrency: defaultConcurrency,
	}
}

// Publish sends the notification in the background. Delivery failures are
// logged; nothing is reported back to the caller.
func (d *Dispatcher) Publish(change mailer.MenuChange) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := d.Send(ctx, change); err != nil {
			d.log.Warnw("menu change notification incomplete", "day", change.Day, "meal", change.Meal, "error", err)
		}
	}()
}

// Wait blocks until every published notification has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Send delivers the change to every user and the chat channel. Each
// recipient is attempted independently; the returned error joins all failures.
func (d *Dispatcher) Send(ctx context.Context, change mailer.MenuChange) error {
	users, err := d.users.ListUsers(ctx, "")
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	subject, body := mailer.MenuChangeMessage(change)

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(d.concurrency)

	for _, u := range users {
		to := u.Email
		g.Go(func() error {
			err := d.mailer.SendMail(ctx, to, subject, body)
			d.metrics.ObserveMail(err)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("mail %s: %w", to, err))
				mu.Unlock()
			}
			return nil
		})
	}

	if d.poster != nil {
		g.Go(func() error {
			if err := d.poster.Post(ctx, change.Summary()); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("channel post: %w", err))
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	d.log.Infow("menu change notified", "day", change.Day, "meal", change.Meal, "recipients", len(users), "failures", len(errs))
	return errors.Join(errs...)
}
