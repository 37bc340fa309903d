package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/config"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/nacos"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/tracing"

	"golang.org/x/sync/errgroup"
)

// AppCtx is handed to the service's wiring callbacks.
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Config
}

// AppInfo describes the service being started.
type AppInfo struct {
	ConfigPath string
	// RegisterHandlers installs the HTTP routes.
	RegisterHandlers func(appCtx AppCtx) error
	// BackgroundRunners are long-lived loops (kafka consumers, the ws feed)
	// that must stop when the root context is cancelled.
	BackgroundRunners []func(ctx context.Context) error
	// OnShutdown closes service-owned resources, called after the HTTP server
	// has drained.
	OnShutdown func(ctx context.Context)
}

// StartService owns the common lifecycle: config, logging, tracing, nacos
// registration, HTTP serving, background loops, and graceful shutdown.
func StartService(info AppInfo) {
	cfg, err := config.Load(info.ConfigPath)
	if err != nil {
		panic("load config: " + err.Error())
	}
	logger.Init(cfg.App.ServiceName, cfg.App.Environment)

	tp, err := tracing.InitTracerProvider(cfg.App.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("init tracer provider")
	}

	var registry *nacos.Client
	ip := ""
	if cfg.Infra.Nacos.ServerAddrs != "" {
		registry, err = nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("init nacos client")
		}
		ip, err = outboundIP()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("resolve outbound ip")
		}
		if err := registry.Register(cfg.App.ServiceName, ip, cfg.App.Port); err != nil {
			logger.L().Fatal().Err(err).Msg("register service instance")
		}
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg}); err != nil {
			logger.L().Fatal().Err(err).Msg("register handlers")
		}
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.App.Port), Handler: mux}

	g, gCtx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		logger.L().Info().Int("port", cfg.App.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, runner := range info.BackgroundRunners {
		runner := runner
		g.Go(func() error { return runner(gCtx) })
	}
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if registry != nil {
			if err := registry.Deregister(cfg.App.ServiceName, ip, cfg.App.Port); err != nil {
				logger.L().Error().Err(err).Msg("deregister service instance")
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L().Error().Err(err).Msg("shutdown http server")
		}
		if info.OnShutdown != nil {
			info.OnShutdown(shutdownCtx)
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.L().Error().Err(err).Msg("shutdown tracer provider")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.L().Fatal().Err(err).Msg("service exited with error")
	}
	logger.L().Info().Msg("service gracefully shut down")
}

// outboundIP discovers the IP this host uses for egress, which is the address
// worth registering.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
