package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/observability"
)

const gradebookEventBufferSize = 16

const (
	redisResubscribeMin = 100 * time.Millisecond
	redisResubscribeMax = 30 * time.Second
)

const (
	// EventMarkRecorded is emitted after a grading event is stored.
	EventMarkRecorded = "mark.recorded"
	// EventAnswerSubmitted is emitted after a student creates or edits an answer.
	EventAnswerSubmitted = "answer.submitted"
)

// GradebookEvent tells listeners that a course gradebook changed.
type GradebookEvent struct {
	Source    string    `json:"source"`
	Type      string    `json:"type"`
	CourseID  uint      `json:"course_id"`
	UnitID    uint      `json:"unit_id"`
	AnswerID  uint      `json:"answer_id"`
	StudentID uint      `json:"student_id"`
	At        time.Time `json:"at"`
}

// GradebookEvents fans gradebook changes out to local subscribers and to other nodes via
// redis pub/sub and NATS. Events from other nodes drop the local view of the cache.
type GradebookEvents interface {
	Publish(ctx context.Context, event GradebookEvent) error
	Subscribe(courseID uint) (<-chan GradebookEvent, func())
	Start(ctx context.Context)
}

type gradebookEvents struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	invalidator  GradebookInvalidator
	logger       zerolog.Logger
	broker       *gradebookBroker
	nodeID       string
	now          func() time.Time
	retryMin     time.Duration
	retryMax     time.Duration
}

type gradebookBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan GradebookEvent]struct{}
}

// NewGradebookEvents constructs the event hub. redisClient, natsConn and invalidator may be nil.
func NewGradebookEvents(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, invalidator GradebookInvalidator, logger zerolog.Logger) GradebookEvents {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &gradebookEvents{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		invalidator:  invalidator,
		logger:       logger.With().Str("component", "gradebook_events").Logger(),
		broker: &gradebookBroker{
			subscribers: make(map[uint]map[chan GradebookEvent]struct{}),
		},
		nodeID:   uuid.NewString(),
		now:      time.Now,
		retryMin: redisResubscribeMin,
		retryMax: redisResubscribeMax,
	}
}

func (e *gradebookEvents) Start(ctx context.Context) {
	if e.redis != nil && e.redisChannel != "" {
		go e.consumeRedis(ctx)
	}
	if e.nats != nil && e.natsSubject != "" {
		go e.consumeNATS(ctx)
	}
}

func (e *gradebookEvents) Publish(ctx context.Context, event GradebookEvent) error {
	event.Source = e.nodeID
	if event.At.IsZero() {
		event.At = e.now().UTC()
	}

	e.broker.broadcast(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if e.redis != nil && e.redisChannel != "" {
		if err := e.redis.Publish(ctx, e.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.nats != nil && e.natsSubject != "" {
		if err := e.nats.Publish(e.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *gradebookEvents) Subscribe(courseID uint) (<-chan GradebookEvent, func()) {
	channel := make(chan GradebookEvent, gradebookEventBufferSize)

	e.broker.subscribe(courseID, channel)
	observability.GradebookStreamsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			e.broker.unsubscribe(courseID, channel)
			observability.GradebookStreamsActive().Dec()
		})
	}

	return channel, cleanup
}

// consumeRedis keeps a subscription open until ctx ends, resubscribing with exponential
// backoff whenever the connection drops.
func (e *gradebookEvents) consumeRedis(ctx context.Context) {
	backoff := e.retryMin
	for {
		err := e.receiveRedis(ctx, func() { backoff = e.retryMin })
		if ctx.Err() != nil {
			return
		}

		e.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("gradebook redis subscription lost")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, e.retryMax)
	}
}

func (e *gradebookEvents) receiveRedis(ctx context.Context, subscribed func()) error {
	pubsub := e.redis.Subscribe(ctx, e.redisChannel)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	subscribed()
	e.logger.Debug().Str("channel", e.redisChannel).Msg("gradebook redis subscription ready")

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		e.handleEvent(ctx, []byte(msg.Payload))
	}
}

func (e *gradebookEvents) consumeNATS(ctx context.Context) {
	sub, err := e.nats.Subscribe(e.natsSubject, func(msg *nats.Msg) {
		e.handleEvent(ctx, msg.Data)
	})
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to subscribe to nats gradebook subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			e.logger.Warn().Err(err).Msg("failed to drain gradebook nats subscription")
		}
	}()
}

// handleEvent applies an event published by another node. Both transports may deliver the
// same event; invalidation and broadcast are idempotent for listeners that refetch.
func (e *gradebookEvents) handleEvent(ctx context.Context, payload []byte) {
	var event GradebookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		e.logger.Warn().Err(err).Msg("invalid gradebook event payload")
		return
	}

	if event.Source == e.nodeID {
		return
	}

	if e.invalidator != nil {
		if err := e.invalidator.Invalidate(ctx, event.CourseID); err != nil {
			e.logger.Warn().Err(err).Uint("course_id", event.CourseID).Msg("failed to invalidate gradebook from remote event")
		}
		observability.GradebookInvalidations().WithLabelValues("remote").Inc()
	}

	e.broker.broadcast(event)
}

func (b *gradebookBroker) subscribe(courseID uint, ch chan GradebookEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[courseID]; !exists {
		b.subscribers[courseID] = make(map[chan GradebookEvent]struct{})
	}
	b.subscribers[courseID][ch] = struct{}{}
}

func (b *gradebookBroker) unsubscribe(courseID uint, ch chan GradebookEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[courseID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, courseID)
		}
	}
}

func (b *gradebookBroker) broadcast(event GradebookEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.CourseID] {
		select {
		case ch <- event:
		default:
		}
	}
}
