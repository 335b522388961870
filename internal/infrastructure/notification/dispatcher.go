package notification

import (
	"context"
	"log"
	"sync"
	"time"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"
)

const (
	DefaultQueueSize   = 256
	DefaultWorkers     = 2
	defaultSendTimeout = 10 * time.Second
)

// Metrics counts notification results: sent, failed or dropped.
type Metrics interface {
	IncNotification(result string)
}

type nopMetrics struct{}

func (nopMetrics) IncNotification(string) {}

// AfterSendFunc runs after a successful send. Its error is logged only.
type AfterSendFunc func(ctx context.Context, n entities.Notification) error

type Options struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
	AfterSend   AfterSendFunc
}

// Dispatcher delivers notifications from a bounded queue on background
// workers. Enqueue never blocks and a send failure never reaches the caller.
type Dispatcher struct {
	sender  Sender
	metrics Metrics
	opts    Options
	queue   chan entities.Notification

	// mu orders Enqueue against shutdown: once stopped is set no send can
	// reach the queue, so the final drain sees everything accepted.
	mu      sync.RWMutex
	stopped bool
}

var _ interfaces.INotifier = (*Dispatcher)(nil)

func NewDispatcher(sender Sender, metrics Metrics, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Dispatcher{
		sender:  sender,
		metrics: metrics,
		opts:    opts,
		queue:   make(chan entities.Notification, opts.QueueSize),
	}
}

func (d *Dispatcher) Enqueue(n entities.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		log.Printf("[payment][notification] dispatcher stopped, dropping payment_id=%s", n.PaymentID)
		d.metrics.IncNotification("dropped")
		return false
	}
	select {
	case d.queue <- n:
		return true
	default:
		log.Printf("[payment][notification] queue full, dropping payment_id=%s", n.PaymentID)
		d.metrics.IncNotification("dropped")
		return false
	}
}

// Run starts the workers and blocks until ctx is cancelled. Whatever is
// still queued at that point is delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Printf("[payment][notification] dispatcher started workers=%d queue_size=%d", d.opts.Workers, d.opts.QueueSize)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < d.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(stop)
		}()
	}

	<-ctx.Done()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	close(stop)
	wg.Wait()

	log.Printf("[payment][notification] dispatcher stopped")
	return nil
}

func (d *Dispatcher) work(stop <-chan struct{}) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-stop:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		default:
			return
		}
	}
}

// deliver uses its own context so a shutdown does not cut a send short.
func (d *Dispatcher) deliver(n entities.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.SendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, n); err != nil {
		log.Printf("[payment][notification] send failed payment_id=%s err=%v", n.PaymentID, err)
		d.metrics.IncNotification("failed")
		return
	}
	d.metrics.IncNotification("sent")

	if d.opts.AfterSend != nil {
		if err := d.opts.AfterSend(ctx, n); err != nil {
			log.Printf("[payment][notification] after send hook failed payment_id=%s err=%v", n.PaymentID, err)
		}
	}
}

// MarkAppointmentNotified flags the appointment once its confirmation went out.
func MarkAppointmentNotified(repo interfaces.IAppointmentRepository) AfterSendFunc {
	return func(ctx context.Context, n entities.Notification) error {
		if n.AppointmentID == "" {
			return nil
		}
		return repo.MarkNotificationSent(ctx, n.AppointmentID)
	}
}
