package main

import (
	"context"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/bootstrap"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/db"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/httpclient"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/mq"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/redis"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/zookeeper"

	inventoryapp "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/application"
	inventoryinfra "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/infrastructure"
	inventoryhttp "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/interfaces"
	orderapp "github.com/BasicCode11/Backend-EC-sub000/internal/service/order/application"
	orderinfra "github.com/BasicCode11/Backend-EC-sub000/internal/service/order/infrastructure"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/infrastructure/adapter"
	orderhttp "github.com/BasicCode11/Backend-EC-sub000/internal/service/order/interfaces"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

func main() {
	var (
		auditWriter        *kafka.Writer
		notificationWriter *kafka.Writer
		redisClient        *redis.Client
		zkConn             *zookeeper.Conn
		hub                *orderhttp.Hub
		feedReader         *kafka.Reader
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ConfigPath: "configs/config.yaml",
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			cfg := appCtx.Config
			tracer := otel.Tracer(cfg.App.ServiceName)

			gormDB, err := db.Open(cfg)
			if err != nil {
				return errors.Wrap(err, "open mysql")
			}
			if err := gormDB.AutoMigrate(
				&inventoryinfra.StockRecordModel{},
				&orderinfra.OrderModel{},
				&orderinfra.OrderItemModel{},
			); err != nil {
				return errors.Wrap(err, "auto migrate")
			}

			redisClient, err = redis.NewClient(cfg.Infra.Redis.Addrs)
			if err != nil {
				return errors.Wrap(err, "connect redis")
			}
			zkConn, err = zookeeper.Connect(cfg.Infra.Zookeeper.Addrs)
			if err != nil {
				return errors.Wrap(err, "connect zookeeper")
			}

			auditWriter = mq.NewKafkaWriter(cfg.KafkaBrokers(), cfg.Infra.Kafka.AuditTopic)
			notificationWriter = mq.NewKafkaWriter(cfg.KafkaBrokers(), cfg.Infra.Kafka.NotificationTopic)

			auditTrail := adapter.NewAuditKafkaAdapter(auditWriter)
			notifier := adapter.NewNotificationKafkaAdapter(notificationWriter)

			alerter, err := inventoryapp.NewStockAlerter(
				cfg.Stock.AlertRule,
				notifier,
				httpclient.NewClient(tracer),
				cfg.Stock.AlertWebhookURL,
			)
			if err != nil {
				return errors.Wrap(err, "compile stock alert rule")
			}

			stockRepo := inventoryinfra.NewGormStockRepository(gormDB)
			ledger := inventoryapp.NewStockLedger(stockRepo, tracer, alerter)
			coordinator := inventoryapp.NewReservationCoordinator(ledger, stockRepo, tracer)

			orderRepo := orderinfra.NewGormOrderRepository(gormDB)
			cart := adapter.NewCartRedisAdapter(redisClient)
			locker := adapter.NewZkLockerAdapter(zkConn)
			lifecycle := orderapp.NewOrderLifecycle(orderRepo, coordinator, cart, auditTrail, notifier, locker, tracer)

			inventoryhttp.NewStockHandler(ledger).RegisterRoutes(appCtx.Mux)
			orderhttp.NewOrderHandler(lifecycle, cart, redisClient).RegisterRoutes(appCtx.Mux)

			hub = orderhttp.NewHub()
			feedReader = mq.NewKafkaReader(cfg.KafkaBrokers(), cfg.Infra.Kafka.NotificationTopic, "order-feed-ws")
			appCtx.Mux.HandleFunc("GET /ws/orders", hub.ServeWS)
			return nil
		},
		BackgroundRunners: []func(ctx context.Context) error{
			func(ctx context.Context) error { return hub.Run(ctx) },
			func(ctx context.Context) error { return orderhttp.RunFeed(ctx, hub, feedReader) },
		},
		OnShutdown: func(ctx context.Context) {
			if auditWriter != nil {
				if err := auditWriter.Close(); err != nil {
					logger.L().Error().Err(err).Msg("close audit writer")
				}
			}
			if notificationWriter != nil {
				if err := notificationWriter.Close(); err != nil {
					logger.L().Error().Err(err).Msg("close notification writer")
				}
			}
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					logger.L().Error().Err(err).Msg("close redis client")
				}
			}
			if zkConn != nil {
				zkConn.Close()
			}
		},
	})
}
