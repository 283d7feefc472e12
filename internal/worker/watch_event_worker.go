package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"vidhub/internal/app"
	"vidhub/internal/model"
	"vidhub/internal/platform/rabbitmq"
	"vidhub/internal/repository"
)

// errDrop marks deliveries that can never succeed.
var errDrop = errors.New("drop watch event")

// WatchEventWorker consumes watch events: it moves the video to the end of
// the viewer's history, bumps the view count and drops the cached history.
type WatchEventWorker struct {
	conn      *amqp.Connection
	queueName string
	users     app.UserStore
	videos    app.VideoStore
	cache     app.WatchHistoryCache
	log       *logrus.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWatchEventWorker(conn *amqp.Connection, queueName string, users app.UserStore, videos app.VideoStore, cache app.WatchHistoryCache) *WatchEventWorker {
	return &WatchEventWorker{
		conn:      conn,
		queueName: queueName,
		users:     users,
		videos:    videos,
		cache:     cache,
		log:       logrus.WithField("component", "watch_event_worker"),
	}
}

func (w *WatchEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}
				w.deliver(workerCtx, d)
			}
		}
	}()

	w.log.WithField("queue", w.queueName).Info("watch event worker started")
	return nil
}

func (w *WatchEventWorker) deliver(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errDrop):
		w.log.WithError(err).Warn("dropping watch event")
		_ = d.Nack(false, false)
	default:
		// retry once; a second failure is dropped
		w.log.WithError(err).WithField("redelivered", d.Redelivered).Error("process watch event failed")
		_ = d.Nack(false, !d.Redelivered)
	}
}

// Handle applies one encoded watch event.
func (w *WatchEventWorker) Handle(ctx context.Context, body []byte) error {
	var event model.WatchEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: decode: %v", errDrop, err)
	}
	if event.UserID == "" || event.VideoID == "" {
		return fmt.Errorf("%w: missing user or video id", errDrop)
	}
	return w.Apply(ctx, event)
}

// Apply records one watch. The history move-to-end is idempotent, so it runs
// first; the view count is bumped last and only once the history write has
// succeeded, which keeps a redelivered event from counting twice.
func (w *WatchEventWorker) Apply(ctx context.Context, event model.WatchEvent) error {
	entry := w.log.WithFields(logrus.Fields{"user_id": event.UserID, "video_id": event.VideoID})

	video, err := w.videos.GetByID(ctx, event.VideoID)
	if err != nil {
		return err
	}
	if video == nil {
		return fmt.Errorf("%w: video %s not found", errDrop, event.VideoID)
	}

	if err := w.users.AppendWatchHistory(ctx, event.UserID, event.VideoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user %s not found", errDrop, event.UserID)
		}
		return err
	}
	defer w.invalidate(ctx, event.UserID, entry)

	if err := w.videos.IncrementViews(ctx, event.VideoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: video %s removed", errDrop, event.VideoID)
		}
		return err
	}
	entry.Debug("watch event applied")
	return nil
}

func (w *WatchEventWorker) invalidate(ctx context.Context, userID string, entry *logrus.Entry) {
	if w.cache == nil {
		return
	}
	if err := w.cache.DeleteHistory(ctx, userID); err != nil {
		entry.WithError(err).Warn("invalidate watch history cache failed")
	}
}

func (w *WatchEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
