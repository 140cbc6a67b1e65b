package mail

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kalado/authentication/internal/api/metrics"
	"github.com/kalado/authentication/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrQueueFull is returned by Enqueue when the recipient's shard is saturated.
var ErrQueueFull = errors.New("mail queue full")

// Dispatcher delivers transactional mail on a fixed set of workers. Mails are
// sharded by recipient so messages to one address leave in order.
type Dispatcher struct {
	workers []chan domain.Mail
	sender  Sender
	links   Links
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, links Links, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Mail, numWorkers),
		sender:  sender,
		links:   links,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Mail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands m to the worker responsible for its recipient without
// blocking.
func (d *Dispatcher) Enqueue(m domain.Mail) error {
	idx := d.shardIndex(m.To)
	select {
	case d.workers[idx] <- m:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.MailsTotal.WithLabelValues(string(m.Kind), "dropped").Inc()
		return ErrQueueFull
	}
}

func (d *Dispatcher) PasswordResetRequested(_ context.Context, email, token string) error {
	return d.Enqueue(d.links.PasswordReset(email, token))
}

func (d *Dispatcher) VerificationRequested(_ context.Context, email, token string) error {
	return d.Enqueue(d.links.Verification(email, token))
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(recipient)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Mail) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(worker).Set(float64(len(ch)))
			d.deliver(ctx, id, m)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, m domain.Mail) {
	start := time.Now()
	err := d.sender.Send(ctx, m)
	metrics.MailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailsTotal.WithLabelValues(string(m.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("kind", string(m.Kind)).
			Str("to", m.To).
			Int("worker_id", worker).
			Msg("mail delivery failed")
		return
	}
	metrics.MailsTotal.WithLabelValues(string(m.Kind), "sent").Inc()
	d.log.Debug().Str("kind", string(m.Kind)).Str("to", m.To).Msg("mail sent")
}
