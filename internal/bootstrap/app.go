package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"vidhub/internal/app"
	"vidhub/internal/cache"
	"vidhub/internal/config"
	"vidhub/internal/media"
	mongoClient "vidhub/internal/platform/mongo"
	mysqlClient "vidhub/internal/platform/mysql"
	natsClient "vidhub/internal/platform/nats"
	rabbitmqClient "vidhub/internal/platform/rabbitmq"
	redisClient "vidhub/internal/platform/redis"
	"vidhub/internal/repository"
	"vidhub/internal/repository/mongostore"
	"vidhub/internal/worker"
)

type App struct {
	Config *config.Config

	Mongo  *mongo.Client
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	NATS   *nats.Conn

	Store          app.Store
	Media          *media.ObjectStore
	HistoryCache   *cache.WatchHistoryCache
	WatchPublisher *rabbitmqClient.WatchEventPublisher
	WatchWorker    *worker.WatchEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	setupLogger(cfg)

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			logrus.WithError(closeErr).Warn("release partially initialised resources failed")
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	if err := a.openStore(ctx); err != nil {
		return err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.Redis = redisCli
	a.HistoryCache = cache.NewWatchHistoryCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	natsConn, js, err := natsClient.New(ctx, cfg.Media.NATSURL, cfg.App.Name)
	if err != nil {
		return err
	}
	a.NATS = natsConn
	mediaStore, err := media.NewObjectStore(ctx, js, cfg.Media.Bucket, cfg.Media.PublicBaseURL)
	if err != nil {
		return err
	}
	a.Media = mediaStore

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.WatchEventQueue)
	if err != nil {
		return err
	}
	a.MQConn = mqConn
	a.WatchPublisher = rabbitmqClient.NewWatchEventPublisher(mqConn, cfg.RabbitMQ.WatchEventQueue)

	a.WatchWorker = worker.NewWatchEventWorker(mqConn, cfg.RabbitMQ.WatchEventQueue, a.Store.Users, a.Store.Videos, a.HistoryCache)
	if err := a.WatchWorker.Start(ctx); err != nil {
		return fmt.Errorf("start watch event worker failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"store": cfg.Store.Driver,
		"addr":  cfg.HTTPAddr(),
	}).Info("application initialised")
	return nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Store.Driver {
	case config.StoreDriverMySQL:
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		a.MySQL = db
		if err := repository.AutoMigrate(db); err != nil {
			return err
		}
		a.Store = app.Store{
			Users:         repository.NewUserRepository(db),
			Subscriptions: repository.NewSubscriptionRepository(db),
			Videos:        repository.NewVideoRepository(db),
			Profiles:      repository.NewProfileQueries(db),
		}
	default:
		client, err := mongoClient.New(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		a.Mongo = client
		db := client.Database(cfg.Mongo.DB)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		a.Store = app.Store{
			Users:         mongostore.NewUserStore(db),
			Subscriptions: mongostore.NewSubscriptionStore(db),
			Videos:        mongostore.NewVideoStore(db),
			Profiles:      mongostore.NewProfileQueries(db),
		}
	}
	return nil
}

// HealthChecks pings every external dependency that was opened.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"redis": func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		},
		"rabbitmq": func(context.Context) error {
			if a.MQConn == nil || a.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
		"nats": func(context.Context) error {
			if a.NATS == nil || !a.NATS.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		},
	}
	if a.Mongo != nil {
		checks["mongodb"] = func(ctx context.Context) error {
			return a.Mongo.Ping(ctx, nil)
		}
	}
	if a.MySQL != nil {
		checks["mysql"] = func(ctx context.Context) error {
			sqlDB, err := a.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	return checks
}

func (a *App) Close() error {
	var closeErr error
	if a.WatchWorker != nil {
		a.WatchWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			closeErr = errors.Join(closeErr, err)
		}
	}
	if a.NATS != nil {
		a.NATS.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = errors.Join(closeErr, err)
			}
		}
	}
	return closeErr
}

func setupLogger(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
}
