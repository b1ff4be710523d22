package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cwl-bot/internal/bot"
	"cwl-bot/internal/coc"
	"cwl-bot/internal/config"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/feed"
	"cwl-bot/internal/league"
	"cwl-bot/internal/storage"
	"cwl-bot/internal/storage/mongostore"
	"cwl-bot/internal/views"
	"cwl-bot/internal/warbase"
)

func run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		logger.Error("storage init failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		return err
	}
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	api := coc.New(coc.Config{
		BaseURL:           cfg.CocAPIBaseURL,
		Token:             cfg.CocAPIToken,
		Concurrency:       cfg.API.Concurrency,
		RequestsPerWindow: cfg.API.RequestsPerWindow,
		Window:            time.Duration(cfg.API.WindowSeconds) * time.Second,
	}, logger.Named("coc"))

	builder := embeds.NewBuilder(embeds.Colors{
		Default: cfg.EmbedColors.Default,
		Success: cfg.EmbedColors.Success,
		Warning: cfg.EmbedColors.Warning,
		Error:   cfg.EmbedColors.Error,
	})
	leagueSvc := league.NewService(api, repo, league.Config{
		MinTownHall:        cfg.League.MinTownHall,
		MaxAccountsPerUser: cfg.League.MaxAccountsPerUser,
		SignupCutoff:       time.Duration(cfg.League.SignupCutoffHours) * time.Hour,
	}, logger.Named("league"))
	viewManager := views.NewManager(time.Duration(cfg.Views.TimeoutSeconds)*time.Second, logger.Named("views"))

	botSvc, err := bot.New(cfg, logger, bot.Services{
		API:      api,
		League:   leagueSvc,
		WarBases: warbase.NewService(repo, logger.Named("warbase")),
		Feeds:    repo,
		Views:    viewManager,
		Builder:  builder,
	})
	if err != nil {
		logger.Error("bot init failed", zap.Error(err))
		return err
	}
	if err := botSvc.Start(); err != nil {
		logger.Error("bot start failed", zap.Error(err))
		return err
	}
	logger.Info("bot started")

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, feed.NewLoggerAdapter(logger.Named("pubsub")))
	watcher := feed.NewWatcher(api, repo, pubsub, time.Duration(cfg.Feed.PollSeconds)*time.Second, logger.Named("feed"))
	dispatcher := feed.NewDispatcher(repo, api, botSvc.Session(), builder, feed.DispatcherConfig{
		WebhookName: cfg.Feed.WebhookName,
		Concurrency: cfg.Feed.Concurrency,
	}, logger.Named("feed"))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return dispatcher.Run(groupCtx, pubsub)
	})
	group.Go(func() error {
		watcher.Run(groupCtx)
		return nil
	})

	var server *http.Server
	if cfg.Health.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		server = &http.Server{Addr: cfg.Health.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	<-groupCtx.Done()
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
	if err := pubsub.Close(); err != nil {
		logger.Warn("pubsub close failed", zap.Error(err))
	}
	runErr := group.Wait()
	if err := repo.Close(shutdownCtx); err != nil {
		logger.Warn("storage close failed", zap.Error(err))
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func openRepository(ctx context.Context, cfg config.StorageConfig) (storage.Repository, error) {
	switch cfg.Driver {
	case "mongo":
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, nil
	default:
		store, err := storage.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return store, nil
	}
}
