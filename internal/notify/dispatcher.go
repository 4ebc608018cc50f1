package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher delivers messages in the background so callers never wait on SMTP.
type Dispatcher struct {
	mailer  Mailer
	timeout time.Duration
	queue   chan Message
	done    chan struct{}
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts a single worker draining a queue of queueSize messages.
func NewDispatcher(mailer Mailer, queueSize int, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		mailer:  mailer,
		timeout: timeout,
		queue:   make(chan Message, queueSize),
		done:    make(chan struct{}),
		logger:  logger.With().Str("component", "mail-dispatcher").Logger(),
	}
	go d.run()
	return d
}

// Enqueue schedules msg for delivery. It never blocks; when the queue is full or the
// dispatcher is closed the message is dropped and false is returned.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn().Str("to", msg.To).Str("subject", msg.Subject).Msg("dispatcher closed, email dropped")
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail queue full, email dropped")
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be sent or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn().Int("pending", len(d.queue)).Msg("mail queue not drained before shutdown")
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for msg := range d.queue {
		d.send(msg)
	}
}

func (d *Dispatcher) send(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.Error().
			Err(err).
			Str("to", msg.To).
			Str("subject", msg.Subject).
			Msg("failed to send email")
	}
}
