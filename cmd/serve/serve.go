package serve

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opstrack/opstrack/cmd/config"
	"github.com/opstrack/opstrack/internal/aio"
	httpapi "github.com/opstrack/opstrack/internal/app/subsystems/api/http"
	"github.com/opstrack/opstrack/internal/app/subsystems/persist"
	"github.com/opstrack/opstrack/internal/kernel/system"
	"github.com/opstrack/opstrack/internal/metrics"
	"github.com/opstrack/opstrack/internal/notify"
	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCmd(cfg *config.Config, vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the opstrack server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if file, _ := cmd.Flags().GetString("config"); file != "" {
				vip.SetConfigFile(file)
			} else {
				vip.SetConfigName("opstrack")
				vip.AddConfigPath(".")
				vip.AddConfigPath("$HOME")
			}

			vip.SetEnvPrefix("OPSTRACK")
			vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			vip.AutomaticEnv()

			if err := vip.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return err
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Decode(vip); err != nil {
				return err
			}

			return Serve(cfg)
		},
	}

	// bind config file flag
	cmd.Flags().StringP("config", "c", "", "config file (default opstrack.yaml)")

	// bind config
	if err := cfg.Bind(cmd, vip); err != nil {
		panic(err)
	}

	// bind other flags
	cmd.Flags().Bool("ignore-asserts", false, "ignore-asserts mode")
	_ = viper.BindPFlag("ignore-asserts", cmd.Flags().Lookup("ignore-asserts"))

	return cmd
}

func Serve(cfg *config.Config) error {
	// logger
	logger, err := log.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		return err
	}
	slog.SetDefault(logger)

	// metrics
	reg := prometheus.NewRegistry()
	metrics := metrics.New(reg)

	// aio
	aio := aio.New(&cfg.AIO, metrics)

	// notifications
	feed := notify.NewFeed(&cfg.Notifications)

	// instantiate system
	system := system.New(aio, &cfg.System, metrics, notify.Multi(feed, notify.Log))

	// persistence
	persister, err := cfg.Persist.New()
	if err != nil {
		slog.Error("failed to create persister", "err", err)
		return err
	}

	var writer *persist.Writer
	if persister != nil {
		if err := persister.Start(); err != nil {
			slog.Error("failed to start persister", "persister", persister, "err", err)
			return err
		}
		defer util.DeferAndLog(persister.Stop)

		ops, err := persister.Load()
		if err != nil {
			slog.Error("failed to load operations", "persister", persister, "err", err)
			return err
		}
		system.Restore(ops)

		writer = persist.NewWriter(persister, &cfg.Persist.Writer)
		writer.Start()
		system.Subscribe(writer.Listen)
	}

	// http api
	api, err := httpapi.New(system, feed, metrics, &cfg.Http)
	if err != nil {
		slog.Error("failed to create http api", "err", err)
		return err
	}

	// start aio/feed/api
	if err := aio.Start(); err != nil {
		slog.Error("failed to start aio", "err", err)
		return err
	}
	if err := feed.Start(); err != nil {
		slog.Error("failed to start notifications", "err", err)
		return err
	}

	errs := make(chan error, 1)
	go api.Start(errs)

	// metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		for {
			slog.Info("starting metrics server", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && errors.Is(err, http.ErrServerClosed) {
				return
			}

			slog.Error("restarting metrics server...", "err", err)
			time.Sleep(5 * time.Second)
		}
	}()

	// listen for shutdown signal
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

		// halt until we get a shutdown signal or an error
		// occurs, whichever happens first
		select {
		case s := <-sig:
			slog.Info("shutdown signal received, shutting down", "signal", s)
		case err := <-errs:
			slog.Error("api error received, shutting down", "err", err)
		}

		// stop accepting requests, then drain the system
		if err := api.Stop(); err != nil {
			slog.Warn("error stopping http api", "err", err)
		}
		<-system.Shutdown()

		// shutdown metrics server
		if err := metricsServer.Close(); err != nil {
			slog.Warn("error stopping metrics server", "err", err)
		}
	}()

	// control loop
	if err := system.Loop(); err != nil {
		slog.Error("control loop failed", "err", err)
		return err
	}

	// stop aio/feed/writer
	if err := aio.Stop(); err != nil {
		slog.Error("failed to stop aio", "err", err)
		return err
	}
	if err := feed.Stop(); err != nil {
		slog.Error("failed to stop notifications", "err", err)
		return err
	}
	if writer != nil {
		writer.Stop()
	}

	return nil
}
