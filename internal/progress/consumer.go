package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/media-catalog/internal/platform/analytics"
)

// SubjectEvents carries asynchronous watched/unwatched writes. The HTTP layer
// publishes here and answers 202; the consumer applies the writes.
const SubjectEvents = "progress.events"

const (
	ActionWatched   = "watched"
	ActionUnwatched = "unwatched"
)

// WatchedEvent is the durable payload for an asynchronous progress write.
type WatchedEvent struct {
	EventID       string    `json:"event_id"`
	Action        string    `json:"action"`
	UserID        string    `json:"user_id"`
	ShowID        int64     `json:"show_id"`
	SeasonNumber  int       `json:"season_number"`
	EpisodeNumber int       `json:"episode_number"`
	WatchedAt     time.Time `json:"watched_at"`
}

// EventPublisher publishes progress writes to JetStream for the consumer.
// Unlike analytics, publish failures here must surface to the caller so the
// HTTP layer can refuse the 202.
type EventPublisher struct {
	js nats.JetStreamContext
}

func NewEventPublisher(js nats.JetStreamContext) *EventPublisher {
	return &EventPublisher{js: js}
}

func (p *EventPublisher) Publish(ev WatchedEvent) error {
	if p == nil || p.js == nil {
		return fmt.Errorf("progress: event publisher not configured")
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}
	if _, err := p.js.Publish(SubjectEvents, data); err != nil {
		return fmt.Errorf("publish progress event: %w", err)
	}
	return nil
}

// ConsumerOptions tune the pull-consumer batch loop.
type ConsumerOptions struct {
	BatchSize     int
	BatchInterval time.Duration
}

// StartConsumer subscribes to progress.events and applies idempotent writes.
// Each batch runs in one transaction; processed_events dedupes redeliveries.
func StartConsumer(ctx context.Context, nc *nats.Conn, pool *pgxpool.Pool, svc *Service, opts ConsumerOptions, log *zap.Logger) error {
	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}
	sub, err := js.PullSubscribe(SubjectEvents, "progress_writer")
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectEvents, err)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchInterval <= 0 {
		opts.BatchInterval = 2 * time.Second
	}

	go consumeLoop(ctx, sub, pool, svc, opts, log)
	return nil
}

func consumeLoop(ctx context.Context, sub *nats.Subscription, pool *pgxpool.Pool, svc *Service, opts ConsumerOptions, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(opts.BatchSize, nats.MaxWait(opts.BatchInterval))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			log.Error("progress consumer: fetch failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		if err := applyBatch(ctx, pool, svc, msgs); err != nil {
			log.Error("progress consumer: batch failed", zap.Int("messages", len(msgs)), zap.Error(err))
			for _, m := range msgs {
				if err := m.Nak(); err != nil {
					log.Warn("progress consumer: nak failed", zap.Error(err))
				}
			}
			continue
		}
		for _, m := range msgs {
			if err := m.Ack(); err != nil {
				log.Warn("progress consumer: ack failed", zap.Error(err))
			}
		}
	}
}

func applyBatch(ctx context.Context, pool *pgxpool.Pool, svc *Service, msgs []*nats.Msg) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var pending []WatchedEvent
	for _, m := range msgs {
		var ev WatchedEvent
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			return fmt.Errorf("invalid event payload: %w", err)
		}

		ct, err := tx.Exec(ctx,
			`INSERT INTO processed_events (event_id, subject, created_at, payload)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (event_id) DO NOTHING`,
			ev.EventID, SubjectEvents, time.Now().UTC(), m.Data)
		if err != nil {
			return fmt.Errorf("record processed event: %w", err)
		}
		if ct.RowsAffected() == 0 {
			// redelivery of an already applied event
			continue
		}

		switch ev.Action {
		case ActionWatched:
			_, err = tx.Exec(ctx,
				`INSERT INTO watched_episodes (user_id, show_id, season_number, episode_number, watched_at)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (user_id, show_id, season_number, episode_number)
				 DO UPDATE SET watched_at = EXCLUDED.watched_at`,
				ev.UserID, ev.ShowID, ev.SeasonNumber, ev.EpisodeNumber, ev.WatchedAt)
		case ActionUnwatched:
			_, err = tx.Exec(ctx,
				`DELETE FROM watched_episodes
				 WHERE user_id=$1 AND show_id=$2 AND season_number=$3 AND episode_number=$4`,
				ev.UserID, ev.ShowID, ev.SeasonNumber, ev.EpisodeNumber)
		default:
			return fmt.Errorf("unknown progress action %q", ev.Action)
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", ev.Action, err)
		}
		pending = append(pending, ev)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	// Post-commit side effects: evictions and analytics for each applied write.
	for _, ev := range pending {
		svc.evictRecent(ev.UserID)
		name := "episode_" + ev.Action
		subj := analyticsSubject(ev.Action)
		svc.events.Publish(subj, name, ev.UserID, map[string]any{
			"show_id": ev.ShowID,
			"season":  ev.SeasonNumber,
			"episode": ev.EpisodeNumber,
			"async":   true,
		})
	}
	return nil
}

func analyticsSubject(action string) string {
	if action == ActionUnwatched {
		return analytics.SubjectEpisodeUnwatched
	}
	return analytics.SubjectEpisodeWatched
}
