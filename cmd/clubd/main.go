package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/club-scheduler/internal/application"
	"github.com/example/club-scheduler/internal/config"
	httptransport "github.com/example/club-scheduler/internal/http"
	"github.com/example/club-scheduler/internal/logging"
	"github.com/example/club-scheduler/internal/participation"
	"github.com/example/club-scheduler/internal/persistence"
	"github.com/example/club-scheduler/internal/persistence/sqlite"
	"github.com/example/club-scheduler/internal/ratelimit"
)

func main() {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := sqlite.Open(ctx, cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	limiter, closeLimiter := newAuthLimiter(ctx, cfg, logger)
	defer closeLimiter()

	handler, err := newHandler(storage, limiter, cfg, time.Now, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("club API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newHandler wires the services and HTTP transport on top of storage.
func newHandler(storage *sqlite.Storage, limiter ratelimit.Limiter, cfg config.Config, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	tokens, err := application.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}

	users := newUserStoreAdapter(storage)
	schedules := newScheduleRepositoryAdapter(storage)
	participants := newParticipantRepositoryAdapter(storage)

	authService := application.NewAuthServiceWithLogger(users, tokens, now, cfg.PrincipalTTL, logger)
	userService := application.NewUserServiceWithLogger(users, authService, now, logger)
	scheduleService := application.NewScheduleServiceWithLogger(schedules, participants, cfg.Location, now, logger)
	participationService := application.NewParticipationServiceWithLogger(participants, schedules, users, now, logger)

	var authLimiter func(http.Handler) http.Handler
	if limiter != nil {
		authLimiter = httptransport.RateLimit(limiter, logger)
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Schedules:     httptransport.NewScheduleHandler(scheduleService, logger),
		Participation: httptransport.NewParticipationHandler(participationService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Authenticator: httptransport.RequireAuth(authService, logger),
		AuthLimiter:   authLimiter,
		Metrics:       httptransport.NewMetrics(),
		Logger:        logger,
		Middleware:    []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}), nil
}

// newAuthLimiter shares the login throttle through Redis when configured and
// falls back to a per-process bucket when Redis is absent or unreachable.
func newAuthLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) (ratelimit.Limiter, func()) {
	memory := ratelimit.NewMemoryLimiter(cfg.AuthRate, cfg.AuthRateWindow, nil)
	if cfg.RedisAddr == "" {
		return memory, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory rate limiter", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return memory, func() {}
	}

	logger.Info("using redis rate limiter", "addr", cfg.RedisAddr)
	return ratelimit.NewRedisLimiter(client, "", cfg.AuthRate, cfg.AuthRateWindow), func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
}

// translateError maps storage sentinels onto the errors the services understand.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrConflict):
		return fmt.Errorf("%w: %w", application.ErrConflict, err)
	case errors.Is(err, persistence.ErrConstraintViolation):
		// A referenced member or schedule vanished between lookup and write.
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	}
	return err
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	stored, err := a.repo.CreateUser(ctx, toPersistenceUser(user))
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id int64) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) GetUserByPhone(ctx context.Context, phone string) (application.User, error) {
	stored, err := a.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	stored, err := a.repo.UpdateUser(ctx, toPersistenceUser(user))
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) DeleteUser(ctx context.Context, id int64) error {
	return translateError(a.repo.DeleteUser(ctx, id))
}

func (a *userStoreAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return toApplicationUsers(models), nil
}

func (a *userStoreAdapter) ListPendingUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListPendingUsers(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return toApplicationUsers(models), nil
}

func (a *userStoreAdapter) SetApproval(ctx context.Context, id int64, approved bool, at time.Time) error {
	return translateError(a.repo.SetApproval(ctx, id, approved, at))
}

type scheduleRepositoryAdapter struct {
	repo persistence.ScheduleRepository
}

func newScheduleRepositoryAdapter(repo persistence.ScheduleRepository) *scheduleRepositoryAdapter {
	return &scheduleRepositoryAdapter{repo: repo}
}

func (a *scheduleRepositoryAdapter) CreateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	created, err := a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule))
	if err != nil {
		return application.Schedule{}, translateError(err)
	}
	return a.GetSchedule(ctx, created.ID)
}

func (a *scheduleRepositoryAdapter) GetSchedule(ctx context.Context, id int64) (application.Schedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, translateError(err)
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) UpdateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if _, err := a.repo.UpdateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, translateError(err)
	}
	return a.GetSchedule(ctx, schedule.ID)
}

func (a *scheduleRepositoryAdapter) DeleteSchedule(ctx context.Context, id int64) error {
	return translateError(a.repo.DeleteSchedule(ctx, id))
}

func (a *scheduleRepositoryAdapter) ListSchedules(ctx context.Context, from, to string) ([]application.Schedule, error) {
	models, err := a.repo.ListSchedules(ctx, persistence.ScheduleRange{From: from, To: to})
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	schedules := make([]application.Schedule, 0, len(models))
	for _, model := range models {
		schedules = append(schedules, toApplicationSchedule(model))
	}
	return schedules, nil
}

type participantRepositoryAdapter struct {
	repo persistence.ParticipantRepository
}

func newParticipantRepositoryAdapter(repo persistence.ParticipantRepository) *participantRepositoryAdapter {
	return &participantRepositoryAdapter{repo: repo}
}

func (a *participantRepositoryAdapter) UpsertParticipant(ctx context.Context, scheduleID, userID int64, status participation.Status, at time.Time) error {
	return translateError(a.repo.UpsertParticipant(ctx, scheduleID, userID, string(status), at))
}

func (a *participantRepositoryAdapter) DeleteParticipant(ctx context.Context, scheduleID, userID int64) (bool, error) {
	removed, err := a.repo.DeleteParticipant(ctx, scheduleID, userID)
	return removed, translateError(err)
}

func (a *participantRepositoryAdapter) ListParticipants(ctx context.Context, scheduleID int64) ([]application.Participant, error) {
	models, err := a.repo.ListParticipants(ctx, scheduleID)
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	participants := make([]application.Participant, 0, len(models))
	for _, model := range models {
		participants = append(participants, application.Participant{
			UserID:    model.UserID,
			UserName:  model.UserName,
			UserPhone: model.UserPhone,
			Status:    participation.Status(model.Status),
			CreatedAt: model.CreatedAt,
			UpdatedAt: model.UpdatedAt,
		})
	}
	return participants, nil
}

func (a *participantRepositoryAdapter) ListUserParticipations(ctx context.Context, userID int64) ([]application.MyParticipation, error) {
	models, err := a.repo.ListUserParticipations(ctx, userID)
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	items := make([]application.MyParticipation, 0, len(models))
	for _, model := range models {
		schedule := toApplicationSchedule(persistence.ScheduleSummary{Schedule: model.Schedule, CreatedByName: model.CreatedByName})
		items = append(items, application.MyParticipation{Schedule: schedule, Status: participation.Status(model.Status)})
	}
	return items, nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:         model.ID,
		Name:       model.Name,
		Phone:      model.Phone,
		IsApproved: model.IsApproved,
		IsAdmin:    model.IsAdmin,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toApplicationUsers(models []persistence.User) []application.User {
	if len(models) == 0 {
		return nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:         user.ID,
		Name:       user.Name,
		Phone:      user.Phone,
		IsApproved: user.IsApproved,
		IsAdmin:    user.IsAdmin,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

func toApplicationSchedule(model persistence.ScheduleSummary) application.Schedule {
	return application.Schedule{
		ID:               model.ID,
		Title:            model.Title,
		Description:      cloneString(model.Description),
		Date:             model.Date,
		StartTime:        model.StartTime,
		EndTime:          model.EndTime,
		Location:         cloneString(model.Location),
		LocationDetail:   cloneString(model.LocationDetail),
		CreatedBy:        model.CreatedBy,
		CreatedByName:    model.CreatedByName,
		ParticipantCount: model.ParticipantCount,
		ConfirmedCount:   model.ConfirmedCount,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceSchedule(schedule application.Schedule) persistence.Schedule {
	return persistence.Schedule{
		ID:             schedule.ID,
		Title:          schedule.Title,
		Description:    cloneString(schedule.Description),
		Date:           schedule.Date,
		StartTime:      schedule.StartTime,
		EndTime:        schedule.EndTime,
		Location:       cloneString(schedule.Location),
		LocationDetail: cloneString(schedule.LocationDetail),
		CreatedBy:      schedule.CreatedBy,
		CreatedAt:      schedule.CreatedAt,
		UpdatedAt:      schedule.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
