package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"canvascal/internal/config"
	"canvascal/internal/domain"
	"canvascal/internal/infer"
	"canvascal/internal/infrastructure/canvas"
	"canvascal/internal/infrastructure/icsfile"
	"canvascal/internal/infrastructure/scheduler"
	"canvascal/internal/infrastructure/storage"
	"canvascal/internal/logging"
	"canvascal/internal/ports"
	"canvascal/internal/usecase"
)

// Application wires config to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	runner   *usecase.Scheduler
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	provider := canvas.NewClient(
		cfg.Canvas.BaseURL,
		cfg.Canvas.Token,
		nil,
		baseLogger.With("component", "canvas"),
	)

	var history ports.HistoryRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect history store: %w", err)
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("prepare history store: %w", err)
		}
		history = repo
	}

	writer := icsfile.NewWriter(cfg.Output.Path, baseLogger.With("component", "icsfile"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Provider:               provider,
		History:                history,
		Writer:                 writer,
		Inferrer:               infer.NewInferrer(),
		Filter:                 infer.NewFilter(baseLogger.With("component", "filter")),
		Schedules:              cfg.CourseSchedules(baseLogger),
		PastDays:               cfg.Sync.PastDays,
		FutureDays:             cfg.Sync.FutureDays,
		AnnouncementMaxAgeDays: cfg.Sync.AnnouncementMaxAgeDays,
		ClassSessions:          cfg.Output.ClassSessions,
		Logger:                 baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		runner:   usecase.NewScheduler(driver, pipeline),
	}, nil
}

// RunOnce performs a single sync cycle and logs per-course outcomes.
func (a *Application) RunOnce(ctx context.Context) error {
	now := time.Now().In(a.cfg.Scheduler.Location())

	outcomes, err := a.pipeline.Sync(ctx, now)
	for _, o := range outcomes {
		if o.Status == domain.StatusSkipped {
			a.logger.Warn("course skipped", "course", o.Code, "reason", o.Reason)
			continue
		}
		a.logger.Info("course synced", "course", o.Code, "included", o.Included, "filtered", o.Filtered)
	}
	return err
}

// Run starts the recurring sync loop and blocks until ctx is canceled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.runner.Stop(stopCtx)
}
