package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/rental-dashboard/internal/application"
	"github.com/example/rental-dashboard/internal/config"
	"github.com/example/rental-dashboard/internal/dashboard"
	httptransport "github.com/example/rental-dashboard/internal/http"
	"github.com/example/rental-dashboard/internal/persistence"
	"github.com/example/rental-dashboard/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	roomRepo := newRoomRepositoryAdapter(storage.Rooms)
	bookingRepo := newBookingRepositoryAdapter(storage.Bookings)
	operatorRepo := newOperatorRepositoryAdapter(storage.Operators)
	sessionRepo := newSessionRepositoryAdapter(storage.Sessions)
	credentialStore := newCredentialStoreAdapter(storage.Operators)

	feed := dashboard.NewFeed()
	feedSync := application.NewFeedSync(bookingRepo, roomRepo, feed, logger)

	bookingService := application.NewBookingServiceWithLogger(bookingRepo, roomRepo, feedSync, idGenerator, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, feedSync, idGenerator, now, logger)
	operatorService := application.NewOperatorServiceWithLogger(operatorRepo, nil, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	// Seed the feed before the first tick so the dashboard never renders from
	// an empty collection while bookings exist in storage.
	if err := feedSync.Refresh(ctx); err != nil {
		logger.Error("failed to seed dashboard feed", "error", err)
		os.Exit(1)
	}

	scheduler := dashboard.NewScheduler(feed, cfg.TickInterval, now, logger)
	go scheduler.Run(ctx)

	authHandler := httptransport.NewAuthHandler(authService, logger)
	bookingHandler := httptransport.NewBookingHandler(bookingService, logger)
	roomHandler := httptransport.NewRoomHandler(roomService, logger)
	operatorHandler := httptransport.NewOperatorHandler(operatorService, logger)
	dashboardHandler := httptransport.NewDashboardHandler(scheduler, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      authHandler,
		Bookings:  bookingHandler,
		Rooms:     roomHandler,
		Operators: operatorHandler,
		Dashboard: dashboardHandler,
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicRoute(r) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("dashboard API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// isPublicRoute reports whether the request may skip session validation. The
// login endpoint has no session yet, and the dashboard endpoints feed wall
// displays that never authenticate.
func isPublicRoute(r *http.Request) bool {
	if r.Method == http.MethodPost && r.URL.Path == "/sessions" {
		return true
	}
	if r.Method == http.MethodGet && (r.URL.Path == "/dashboard" || strings.HasPrefix(r.URL.Path, "/dashboard/")) {
		return true
	}
	return false
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func newBookingRepositoryAdapter(repo persistence.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) DeleteBooking(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

func (a *bookingRepositoryAdapter) ListBookings(ctx context.Context, filter application.BookingRepositoryFilter) ([]application.Booking, error) {
	models, err := a.repo.ListBookings(ctx, persistence.BookingFilter{
		RoomName:         filter.RoomName,
		IncludeCancelled: filter.IncludeCancelled,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

type operatorRepositoryAdapter struct {
	repo persistence.OperatorRepository
}

func newOperatorRepositoryAdapter(repo persistence.OperatorRepository) *operatorRepositoryAdapter {
	return &operatorRepositoryAdapter{repo: repo}
}

func (a *operatorRepositoryAdapter) CreateOperator(ctx context.Context, operator application.Operator, passwordHash string) (application.Operator, error) {
	if err := a.repo.CreateOperator(ctx, toPersistenceOperator(operator, passwordHash)); err != nil {
		return application.Operator{}, err
	}
	stored, err := a.repo.GetOperator(ctx, operator.ID)
	if err != nil {
		return application.Operator{}, err
	}
	return toApplicationOperator(stored), nil
}

func (a *operatorRepositoryAdapter) GetOperator(ctx context.Context, id string) (application.Operator, error) {
	stored, err := a.repo.GetOperator(ctx, id)
	if err != nil {
		return application.Operator{}, err
	}
	return toApplicationOperator(stored), nil
}

func (a *operatorRepositoryAdapter) UpdateOperator(ctx context.Context, operator application.Operator) (application.Operator, error) {
	// The update keeps the stored hash; password changes go through
	// CreateOperator-style re-hashing in the service layer.
	current, err := a.repo.GetOperator(ctx, operator.ID)
	if err != nil {
		return application.Operator{}, err
	}
	if err := a.repo.UpdateOperator(ctx, toPersistenceOperator(operator, current.PasswordHash)); err != nil {
		return application.Operator{}, err
	}
	stored, err := a.repo.GetOperator(ctx, operator.ID)
	if err != nil {
		return application.Operator{}, err
	}
	return toApplicationOperator(stored), nil
}

func (a *operatorRepositoryAdapter) DeleteOperator(ctx context.Context, id string) error {
	return a.repo.DeleteOperator(ctx, id)
}

func (a *operatorRepositoryAdapter) ListOperators(ctx context.Context) ([]application.Operator, error) {
	models, err := a.repo.ListOperators(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	operators := make([]application.Operator, 0, len(models))
	for _, model := range models {
		operators = append(operators, toApplicationOperator(model))
	}
	return operators, nil
}

type sessionRepositoryAdapter struct {
	repo persistence.AuthSessionRepository
}

func newSessionRepositoryAdapter(repo persistence.AuthSessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

type credentialStoreAdapter struct {
	repo persistence.OperatorRepository
}

func newCredentialStoreAdapter(repo persistence.OperatorRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetOperatorCredentialsByEmail(ctx context.Context, email string) (application.OperatorCredentials, error) {
	stored, err := a.repo.GetOperatorByEmail(ctx, email)
	if err != nil {
		return application.OperatorCredentials{}, err
	}
	return application.OperatorCredentials{
		Operator:     toApplicationOperator(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetOperator(ctx context.Context, id string) (application.Operator, error) {
	stored, err := a.repo.GetOperator(ctx, id)
	if err != nil {
		return application.Operator{}, err
	}
	return toApplicationOperator(stored), nil
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Available: model.Available,
		HourCost:  model.HourCost,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Available: room.Available,
		HourCost:  room.HourCost,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:           model.ID,
		RoomName:     model.RoomName,
		CustomerName: model.CustomerName,
		CalendarDate: model.CalendarDate,
		StartTime:    model.StartTime,
		EndTime:      cloneString(model.EndTime),
		Cancelled:    model.Cancelled,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:           booking.ID,
		RoomName:     booking.RoomName,
		CustomerName: booking.CustomerName,
		CalendarDate: booking.CalendarDate,
		StartTime:    booking.StartTime,
		EndTime:      cloneString(booking.EndTime),
		Cancelled:    booking.Cancelled,
		CreatedAt:    booking.CreatedAt,
		UpdatedAt:    booking.UpdatedAt,
	}
}

func toApplicationOperator(model persistence.Operator) application.Operator {
	return application.Operator{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceOperator(operator application.Operator, passwordHash string) persistence.Operator {
	return persistence.Operator{
		ID:           operator.ID,
		Email:        operator.Email,
		DisplayName:  operator.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      operator.IsAdmin,
		CreatedAt:    operator.CreatedAt,
		UpdatedAt:    operator.UpdatedAt,
	}
}

func toApplicationSession(model persistence.AuthSession) application.Session {
	return application.Session{
		ID:         model.ID,
		OperatorID: model.OperatorID,
		Token:      model.Token,
		ExpiresAt:  model.ExpiresAt,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
		RevokedAt:  cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.AuthSession {
	return persistence.AuthSession{
		ID:         session.ID,
		OperatorID: session.OperatorID,
		Token:      session.Token,
		ExpiresAt:  session.ExpiresAt,
		CreatedAt:  session.CreatedAt,
		UpdatedAt:  session.UpdatedAt,
		RevokedAt:  cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
