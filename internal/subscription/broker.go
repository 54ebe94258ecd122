package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/roach88/schemaforge/internal/event"
	"github.com/roach88/schemaforge/internal/predicate"
	"github.com/roach88/schemaforge/internal/schema"
	"github.com/roach88/schemaforge/internal/value"
	"github.com/roach88/schemaforge/internal/visibility"
)

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("subscription: broker closed")

const (
	defaultWorkers = 8
	defaultBuffer  = 16
)

// Options configures a Broker.
type Options struct {
	// Workers bounds concurrent filter evaluations.
	Workers int
	// Buffer is the per-subscription delivery channel capacity.
	Buffer int

	// IDs names subscriptions. nil means UUIDv7Generator.
	IDs IDGenerator
	// Clock stamps dispatched events. nil starts a new clock at zero.
	Clock *Clock

	Logger zerolog.Logger
	// Registerer receives the broker metrics. nil means the default
	// Prometheus registerer.
	Registerer prometheus.Registerer
}

// Request is one subscription document with its variables.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
}

// Delivery is an event delivered to a subscriber. Payload is shaped like the
// subscription field's event type.
type Delivery struct {
	SubscriptionID string
	Field          string
	// Seq is the dispatch sequence number of Event.
	Seq            int64
	Event          *event.ChangeEvent
	Payload        value.Object
}

// Broker routes change events to subscriptions.
type Broker struct {
	schema  *schema.Schema
	log     zerolog.Logger
	metrics *Metrics
	pool    *ants.Pool
	queue   *eventQueue
	clock   *Clock
	ids     IDGenerator
	buffer  int

	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
}

// New creates a broker for s.
func New(s *schema.Schema, opts Options) (*Broker, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewClockAt(0)
	}

	b := &Broker{
		schema:  s,
		log:     opts.Logger.With().Str("component", "broker").Logger(),
		metrics: NewMetrics(opts.Registerer),
		queue:   newEventQueue(),
		clock:   clock,
		ids:     ids,
		buffer:  buffer,
		subs:    make(map[string]*Subscription),
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		b.log.Error().Interface("panic", v).Msg("filter evaluation panicked")
	}))
	if err != nil {
		return nil, fmt.Errorf("subscription: worker pool: %w", err)
	}
	b.pool = pool
	return b, nil
}

// Metrics returns the broker's collectors.
func (b *Broker) Metrics() *Metrics { return b.metrics }

// Subscribe validates req and opens a subscription. The subscription ends
// when ctx is cancelled, Close is called on it, or the broker closes.
//
// Invalid documents return *schema.ValidationError; filters whose literals
// cannot be coerced return *predicate.LiteralError. Other subscriptions are
// unaffected either way.
func (b *Broker) Subscribe(ctx context.Context, req Request) (*Subscription, error) {
	doc, err := b.schema.Validate(req.Query)
	if err != nil {
		b.metrics.RejectedTotal.WithLabelValues("invalid_document").Inc()
		return nil, err
	}
	parsed, err := parseRequest(doc, req.OperationName, req.Variables)
	if err != nil {
		b.metrics.RejectedTotal.WithLabelValues("unsupported_request").Inc()
		return nil, err
	}
	target, ok := b.schema.SubscriptionTarget(parsed.field)
	if !ok {
		b.metrics.RejectedTotal.WithLabelValues("unsupported_request").Inc()
		return nil, &RequestError{Message: fmt.Sprintf("%s is not a subscription field", parsed.field)}
	}
	expr, err := predicate.Compile(b.schema.Model, target.Entity, parsed.where, visibility.SubscriptionWhere)
	if err != nil {
		b.metrics.RejectedTotal.WithLabelValues("invalid_filter").Inc()
		return nil, err
	}

	sub := &Subscription{
		ID:     b.ids.Generate(),
		Target: target,
		expr:   expr,
		out:    make(chan Delivery, b.buffer),
		done:   make(chan struct{}),
		broker: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	b.metrics.ActiveSubscriptions.Inc()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	b.log.Debug().Str("id", sub.ID).Str("field", target.Field).Msg("subscription opened")
	return sub, nil
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subs[sub.ID]
	delete(b.subs, sub.ID)
	b.mu.Unlock()
	if ok {
		b.metrics.ActiveSubscriptions.Dec()
		b.log.Debug().Str("id", sub.ID).Msg("subscription closed")
	}
}

// Publish validates ev and queues it for dispatch.
func (b *Broker) Publish(ev *event.ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		b.metrics.RejectedTotal.WithLabelValues("invalid_event").Inc()
		return err
	}
	if b.schema.Model.Entity(ev.Entity) == nil {
		b.metrics.RejectedTotal.WithLabelValues("invalid_event").Inc()
		return fmt.Errorf("change event %s: unknown entity %q", ev.ID, ev.Entity)
	}
	if !b.queue.Enqueue(ev) {
		return ErrClosed
	}
	b.metrics.EventsTotal.WithLabelValues(ev.Entity, string(ev.Op)).Inc()
	b.metrics.QueueDepth.Set(float64(b.queue.Len()))
	return nil
}

// Consume publishes every event src yields until it is exhausted or ctx is
// cancelled. Events that fail validation are logged and skipped.
func (b *Broker) Consume(ctx context.Context, src Source) error {
	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := b.Publish(ev); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			b.log.Warn().Err(err).Str("event", ev.ID).Msg("skipping change event")
		}
	}
}

// Run dispatches queued events until ctx is cancelled or the broker is
// closed and the queue is empty.
func (b *Broker) Run(ctx context.Context) error {
	for {
		if ev, ok := b.queue.TryDequeue(); ok {
			b.metrics.QueueDepth.Set(float64(b.queue.Len()))
			b.dispatch(ctx, ev, b.clock.Next())
			continue
		}
		if b.queue.Drained() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.queue.Wait():
		}
	}
}

// eventFor maps a change operation to the subscription event it feeds.
func eventFor(op event.Op) schema.Event {
	switch op {
	case event.Created:
		return schema.EventCreate
	case event.Updated:
		return schema.EventUpdate
	default:
		return schema.EventDelete
	}
}

// dispatch evaluates ev against every interested subscription and waits for
// all evaluations to finish.
func (b *Broker) dispatch(ctx context.Context, ev *event.ChangeEvent, seq int64) {
	kind := eventFor(ev.Op)

	b.mu.RLock()
	var targets []*Subscription
	for _, sub := range b.subs {
		if sub.Target.Entity == ev.Entity && sub.Target.Event == kind {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range targets {
		if !sub.acquire() {
			continue
		}
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			defer sub.release()
			b.evaluate(ctx, sub, ev, seq)
		})
		if err != nil {
			wg.Done()
			sub.release()
			b.log.Error().Err(err).Str("id", sub.ID).Msg("cannot schedule filter evaluation")
		}
	}
	wg.Wait()
}

func (b *Broker) evaluate(ctx context.Context, sub *Subscription, ev *event.ChangeEvent, seq int64) {
	start := time.Now()
	ok, err := predicate.MatchEvent(sub.expr, ev)
	b.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		b.metrics.EvaluationErrors.WithLabelValues(sub.Target.Field).Inc()
		b.log.Warn().Err(err).Str("id", sub.ID).Str("event", ev.ID).Msg("filter evaluation failed")
		return
	}
	if !ok {
		return
	}

	d := Delivery{
		SubscriptionID: sub.ID,
		Field:          sub.Target.Field,
		Seq:            seq,
		Event:          ev,
		Payload:        b.payload(sub.Target, ev),
	}
	select {
	case sub.out <- d:
		b.metrics.DeliveriesTotal.WithLabelValues(sub.Target.Field).Inc()
	case <-sub.done:
	case <-ctx.Done():
	}
}

// payload shapes ev like the <E>CreatedEvent, <E>UpdatedEvent or
// <E>DeletedEvent type, keeping only the fields the event payload exposes.
func (b *Broker) payload(t schema.SubscriptionTarget, ev *event.ChangeEvent) value.Object {
	e := b.schema.Model.Entity(t.Entity)
	fields := visibility.Filter(e.Fields, visibility.EventPayload)
	project := func(rec value.Object) value.Object {
		out := make(value.Object, len(fields))
		for _, f := range fields {
			if v, ok := rec[f.Name]; ok {
				out[f.Name] = v
			}
		}
		return out
	}

	out := value.Object{
		"event":     value.String(t.Event),
		"timestamp": value.Number(strconv.FormatFloat(ev.UnixSeconds(), 'f', -1, 64)),
	}
	switch t.Event {
	case schema.EventCreate:
		out["created"+e.Name] = project(ev.After)
	case schema.EventUpdate:
		out["previousState"] = project(ev.Before)
		out["updated"+e.Name] = project(ev.After)
	case schema.EventDelete:
		out["deleted"+e.Name] = project(ev.Before)
	}
	return out
}

// Drain stops accepting events. Subscriptions stay open and Run returns
// once every queued event has been dispatched.
func (b *Broker) Drain() {
	b.queue.Close()
}

// Active returns the number of open subscriptions.
func (b *Broker) Active() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops accepting events, ends every subscription and releases the
// worker pool. Events already queued are still dispatched by Run, but no
// subscription remains to receive them.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	b.queue.Close()
	for _, sub := range subs {
		sub.Close()
	}
	return b.pool.ReleaseTimeout(3 * time.Second)
}

// Subscription is an open subscription.
type Subscription struct {
	ID     string
	Target schema.SubscriptionTarget

	expr   predicate.Expr
	out    chan Delivery
	done   chan struct{}
	broker *Broker

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
	once     sync.Once
}

// Deliveries returns the channel of matching events. It is closed after
// the subscription ends and pending evaluations have finished.
func (s *Subscription) Deliveries() <-chan Delivery { return s.out }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
		s.broker.remove(s)
		go func() {
			s.inflight.Wait()
			close(s.out)
		}()
	})
}

// acquire registers an evaluation unless the subscription has ended.
func (s *Subscription) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.inflight.Add(1)
	return true
}

func (s *Subscription) release() { s.inflight.Done() }
