package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/1020robert/delph-merch/internal/models"
)

// Status reports what happened to a notification request at dispatch time.
// Delivery itself is asynchronous; terminal outcomes only surface in logs.
type Status string

const (
	// StatusQueued means the notification was handed to the worker.
	StatusQueued Status = "queued"
	// StatusDisabled means no mail transport is configured.
	StatusDisabled Status = "not_configured"
	// StatusDropped means the queue was full and the notification was shed.
	StatusDropped Status = "dropped"
)

const (
	queueSize      = 64
	attemptTimeout = 10 * time.Second
	retryDelay     = 2 * time.Second
	// One retry after the first failure, two attempts in total.
	maxRetries = 1
)

type job struct {
	event string
	msg   Message
}

// Notifier schedules owner notifications off the request path. A single
// worker drains the queue so a slow relay backs up mail, not requests.
type Notifier struct {
	mailer Mailer
	to     string
	log    zerolog.Logger

	jobs chan job
	done chan struct{}

	attemptTimeout time.Duration
	retryDelay     time.Duration
}

// New builds a Notifier delivering to ownerEmail and starts its worker. A
// nil mailer disables delivery: every request reports StatusDisabled and
// nothing is scheduled.
func New(mailer Mailer, ownerEmail string, log zerolog.Logger) *Notifier {
	n := &Notifier{
		mailer:         mailer,
		to:             ownerEmail,
		log:            log,
		attemptTimeout: attemptTimeout,
		retryDelay:     retryDelay,
	}
	if mailer == nil || ownerEmail == "" {
		n.mailer = nil
		return n
	}
	n.jobs = make(chan job, queueSize)
	n.done = make(chan struct{})
	go n.run()
	return n
}

// Enabled reports whether notifications are actually being delivered.
func (n *Notifier) Enabled() bool {
	return n.mailer != nil
}

// OrderPlaced tells the owner a new order came in.
func (n *Notifier) OrderPlaced(o *models.Order) Status {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ordered %d x %s", o.UserName, o.Quantity, o.ItemName)
	if o.SelectedSize != "" {
		fmt.Fprintf(&b, " (size %s)", o.SelectedSize)
	}
	b.WriteString("\n\n")
	if o.IncludeInitials && o.UserInitials != "" {
		fmt.Fprintf(&b, "Initials: %s\n", o.UserInitials)
	}
	fmt.Fprintf(&b, "Total: $%s\n", o.TotalPrice.StringFixed(2))
	fmt.Fprintf(&b, "Contact: %s\n", o.UserEmail)
	fmt.Fprintf(&b, "Placed: %s\n", o.CreatedAt.Format(time.RFC1123))
	b.WriteString("\nThe member agreed to pay over Venmo.\n")

	return n.dispatch("order_placed", Message{
		Subject: fmt.Sprintf("New order: %d x %s from %s", o.Quantity, o.ItemName, o.UserName),
		Body:    b.String(),
	})
}

// ApprovalRequested tells the owner a new member is waiting on approval.
func (n *Notifier) ApprovalRequested(u *models.User) Status {
	var b strings.Builder
	fmt.Fprintf(&b, "%s just registered and is waiting for approval.\n\n", u.Name)
	fmt.Fprintf(&b, "Email: %s\n", u.Email)
	fmt.Fprintf(&b, "Registered: %s\n", u.CreatedAt.Format(time.RFC1123))
	b.WriteString("\nApprove them from the admin page to let them order.\n")

	return n.dispatch("approval_requested", Message{
		Subject: fmt.Sprintf("New member waiting: %s", u.Name),
		Body:    b.String(),
	})
}

// Close stops accepting new notifications and waits for queued ones to be
// delivered, bounded by ctx. Call only after the HTTP server has stopped.
func (n *Notifier) Close(ctx context.Context) error {
	if n.mailer == nil {
		return nil
	}
	close(n.jobs)
	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) dispatch(event string, msg Message) Status {
	if n.mailer == nil {
		return StatusDisabled
	}
	select {
	case n.jobs <- job{event: event, msg: msg}:
		return StatusQueued
	default:
		n.log.Warn().Str("event", event).Msg("notification queue full, dropping")
		return StatusDropped
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for j := range n.jobs {
		n.deliver(j)
	}
}

func (n *Notifier) deliver(j job) {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewConstant(n.retryDelay))
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, n.attemptTimeout)
		defer cancel()
		if err := n.mailer.Send(attemptCtx, n.to, j.msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		// Terminal failure. Delivery is best effort, so the record of what
		// was lost lives here in the log.
		n.log.Error().
			Str("event", j.event).
			Str("to", n.to).
			Str("subject", j.msg.Subject).
			Err(err).
			Msg("notification delivery failed, giving up")
		return
	}
	n.log.Info().Str("event", j.event).Str("to", n.to).Msg("notification delivered")
}
