package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/rental-dashboard/internal/application"
	"github.com/example/rental-dashboard/internal/availability"
	"github.com/example/rental-dashboard/internal/dashboard"
	"github.com/example/rental-dashboard/internal/timer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func injectPrincipal(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

type fakeAuthService struct {
	authenticateResult application.AuthenticateResult
	authenticateErr    error
	revokedTokens      []string
	revokeErr          error
}

func (s *fakeAuthService) Authenticate(_ context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.authenticateErr != nil {
		return application.AuthenticateResult{}, s.authenticateErr
	}
	return s.authenticateResult, nil
}

func (s *fakeAuthService) RevokeSession(_ context.Context, token string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revokedTokens = append(s.revokedTokens, token)
	return nil
}

func TestCreateSession(t *testing.T) {
	expiresAt := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	service := &fakeAuthService{
		authenticateResult: application.AuthenticateResult{
			Operator: application.Operator{ID: "op-1", Email: "kani@example.test", IsAdmin: true},
			Session:  application.Session{Token: "token-1", ExpiresAt: expiresAt},
		},
	}

	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, discardLogger())})

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"Kani@example.test","password":"secret-pass"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if got := rec.Header().Get("X-Session-Token"); got != "token-1" {
		t.Errorf("X-Session-Token = %q, want %q", got, "token-1")
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "token-1" {
		t.Errorf("token = %q, want %q", resp.Token, "token-1")
	}
	if resp.Principal.OperatorID != "op-1" || !resp.Principal.IsAdmin {
		t.Errorf("principal = %+v, want op-1 admin", resp.Principal)
	}

	foundCookie := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.Value == "token-1" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Error("session cookie was not set")
	}
}

func TestCreateSessionInvalidCredentials(t *testing.T) {
	service := &fakeAuthService{authenticateErr: application.ErrInvalidCredentials}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, discardLogger())})

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"kani@example.test","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Errorf("error_code = %q, want AUTH_INVALID_CREDENTIALS", resp.ErrorCode)
	}
}

func TestDeleteCurrentSession(t *testing.T) {
	service := &fakeAuthService{}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, discardLogger())})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
	req.Header.Set("Authorization", "Bearer token-9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(service.revokedTokens) != 1 || service.revokedTokens[0] != "token-9" {
		t.Errorf("revoked tokens = %v, want [token-9]", service.revokedTokens)
	}
}

func TestDeleteSessionRequiresAdmin(t *testing.T) {
	service := &fakeAuthService{}
	router := NewRouter(RouterConfig{
		Auth:       NewAuthHandler(service, discardLogger()),
		Middleware: []func(http.Handler) http.Handler{injectPrincipal(application.Principal{OperatorID: "op-2"})},
	})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/token-3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if len(service.revokedTokens) != 0 {
		t.Errorf("revoked tokens = %v, want none", service.revokedTokens)
	}
}

type fakeBookingHandlerService struct {
	created     []application.CreateBookingParams
	cancelled   []string
	listParams  *application.ListBookingsParams
	booking     application.Booking
	bookings    []application.Booking
	createErr   error
	cancelErr   error
	listErr     error
	updateErr   error
	deleteCalls []string
}

func (s *fakeBookingHandlerService) CreateBooking(_ context.Context, params application.CreateBookingParams) (application.Booking, error) {
	if s.createErr != nil {
		return application.Booking{}, s.createErr
	}
	s.created = append(s.created, params)
	return s.booking, nil
}

func (s *fakeBookingHandlerService) UpdateBooking(_ context.Context, params application.UpdateBookingParams) (application.Booking, error) {
	if s.updateErr != nil {
		return application.Booking{}, s.updateErr
	}
	booking := s.booking
	booking.ID = params.BookingID
	return booking, nil
}

func (s *fakeBookingHandlerService) CancelBooking(_ context.Context, _ application.Principal, bookingID string) (application.Booking, error) {
	if s.cancelErr != nil {
		return application.Booking{}, s.cancelErr
	}
	s.cancelled = append(s.cancelled, bookingID)
	booking := s.booking
	booking.ID = bookingID
	booking.Cancelled = true
	return booking, nil
}

func (s *fakeBookingHandlerService) DeleteBooking(_ context.Context, _ application.Principal, bookingID string) error {
	s.deleteCalls = append(s.deleteCalls, bookingID)
	return nil
}

func (s *fakeBookingHandlerService) ListBookings(_ context.Context, params application.ListBookingsParams) ([]application.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.listParams = &params
	return s.bookings, nil
}

func newBookingRouter(service *fakeBookingHandlerService, principal application.Principal) http.Handler {
	return NewRouter(RouterConfig{
		Bookings:   NewBookingHandler(service, discardLogger()),
		Middleware: []func(http.Handler) http.Handler{injectPrincipal(principal)},
	})
}

func TestCreateBookingRoute(t *testing.T) {
	service := &fakeBookingHandlerService{
		booking: application.Booking{
			ID:           "bk-1",
			RoomName:     "هۆڵی سەرەکی",
			CustomerName: "ئاسۆ",
			CalendarDate: "١٤-٣-٢٠٢٦",
			StartTime:    "٤:٠٠ ئێوارە",
		},
	}
	router := newBookingRouter(service, application.Principal{OperatorID: "op-1"})

	body := `{"room_name":"هۆڵی سەرەکی","customer_name":"ئاسۆ","calendar_date":"١٤-٣-٢٠٢٦","start_time":"٤:٠٠ ئێوارە"}`
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(service.created) != 1 {
		t.Fatalf("create calls = %d, want 1", len(service.created))
	}
	if got := service.created[0].Input.RoomName; got != "هۆڵی سەرەکی" {
		t.Errorf("room name = %q, want localized name", got)
	}
	if got := service.created[0].Principal.OperatorID; got != "op-1" {
		t.Errorf("principal = %q, want op-1", got)
	}

	var resp bookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Booking.ID != "bk-1" {
		t.Errorf("booking id = %q, want bk-1", resp.Booking.ID)
	}
	if resp.Booking.EndTime != nil {
		t.Errorf("end_time = %v, want omitted", *resp.Booking.EndTime)
	}
}

func TestCreateBookingValidationLocalized(t *testing.T) {
	service := &fakeBookingHandlerService{
		createErr: &application.ValidationError{FieldErrors: map[string]string{
			"customer_name": "customer name is required",
			"room_name":     "room does not exist",
		}},
	}
	router := newBookingRouter(service, application.Principal{OperatorID: "op-1"})

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := resp.Errors["customer_name"]; got != "ناوی کڕیار پێویستە." {
		t.Errorf("customer_name message = %q, want localized", got)
	}
	if got := resp.Errors["room_name"]; got != "ئەم ژوورە بوونی نییە." {
		t.Errorf("room_name message = %q, want localized", got)
	}
}

func TestCancelBookingRoute(t *testing.T) {
	service := &fakeBookingHandlerService{booking: application.Booking{RoomName: "هۆڵی سەرەکی"}}
	router := newBookingRouter(service, application.Principal{OperatorID: "op-1"})

	req := httptest.NewRequest(http.MethodPost, "/bookings/bk-7/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(service.cancelled) != 1 || service.cancelled[0] != "bk-7" {
		t.Fatalf("cancelled = %v, want [bk-7]", service.cancelled)
	}
	var resp bookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Booking.Cancelled {
		t.Error("booking not marked cancelled in response")
	}
}

func TestListBookingsPassesQueryFilters(t *testing.T) {
	service := &fakeBookingHandlerService{}
	router := newBookingRouter(service, application.Principal{OperatorID: "op-1"})

	req := httptest.NewRequest(http.MethodGet, "/bookings?room_name=%D9%87%DB%86%DA%B5%DB%8C+%D8%B3%D9%87%E2%80%8C%D8%B1%D9%87%E2%80%8C%DA%A9%DB%8C&include_cancelled=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if service.listParams == nil {
		t.Fatal("list was not invoked")
	}
	if !service.listParams.IncludeCancelled {
		t.Error("include_cancelled not forwarded")
	}
	if service.listParams.RoomName == "" {
		t.Error("room_name filter not forwarded")
	}
}

func TestBookingMethodNotAllowed(t *testing.T) {
	service := &fakeBookingHandlerService{}
	router := newBookingRouter(service, application.Principal{OperatorID: "op-1"})

	req := httptest.NewRequest(http.MethodPatch, "/bookings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Errorf("Allow = %q, want it to include POST", allow)
	}
}

type fakeRoomHandlerService struct {
	room        application.Room
	rooms       []application.Room
	availCalls  []bool
	availRoomID string
	setErr      error
}

func (s *fakeRoomHandlerService) CreateRoom(_ context.Context, params application.CreateRoomParams) (application.Room, error) {
	return s.room, nil
}

func (s *fakeRoomHandlerService) UpdateRoom(_ context.Context, params application.UpdateRoomParams) (application.Room, error) {
	room := s.room
	room.ID = params.RoomID
	return room, nil
}

func (s *fakeRoomHandlerService) SetAvailability(_ context.Context, _ application.Principal, roomID string, available bool) (application.Room, error) {
	if s.setErr != nil {
		return application.Room{}, s.setErr
	}
	s.availRoomID = roomID
	s.availCalls = append(s.availCalls, available)
	room := s.room
	room.ID = roomID
	room.Available = available
	return room, nil
}

func (s *fakeRoomHandlerService) DeleteRoom(_ context.Context, _ application.Principal, _ string) error {
	return nil
}

func (s *fakeRoomHandlerService) ListRooms(_ context.Context, _ application.Principal) ([]application.Room, error) {
	return s.rooms, nil
}

func TestSetRoomAvailabilityRoute(t *testing.T) {
	service := &fakeRoomHandlerService{room: application.Room{Name: "هۆڵی سەرەکی"}}
	router := NewRouter(RouterConfig{
		Rooms:      NewRoomHandler(service, discardLogger()),
		Middleware: []func(http.Handler) http.Handler{injectPrincipal(application.Principal{OperatorID: "op-1"})},
	})

	req := httptest.NewRequest(http.MethodPut, "/rooms/rm-2/availability", strings.NewReader(`{"available":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if service.availRoomID != "rm-2" {
		t.Errorf("room id = %q, want rm-2", service.availRoomID)
	}
	if len(service.availCalls) != 1 || service.availCalls[0] {
		t.Errorf("availability calls = %v, want [false]", service.availCalls)
	}

	var resp roomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Room.Available {
		t.Error("room reported available after being marked busy")
	}
}

func TestRoomNotFoundMapsTo404(t *testing.T) {
	service := &fakeRoomHandlerService{setErr: application.ErrNotFound}
	router := NewRouter(RouterConfig{
		Rooms:      NewRoomHandler(service, discardLogger()),
		Middleware: []func(http.Handler) http.Handler{injectPrincipal(application.Principal{OperatorID: "op-1"})},
	})

	req := httptest.NewRequest(http.MethodPut, "/rooms/missing/availability", strings.NewReader(`{"available":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

type staticSnapshotSource struct {
	snapshot dashboard.Snapshot
	ch       chan dashboard.Snapshot
}

func (s *staticSnapshotSource) Latest() dashboard.Snapshot {
	return s.snapshot
}

func (s *staticSnapshotSource) Subscribe() (<-chan dashboard.Snapshot, func()) {
	if s.ch == nil {
		s.ch = make(chan dashboard.Snapshot, 1)
	}
	return s.ch, func() {}
}

func TestDashboardSnapshotRoute(t *testing.T) {
	takenAt := time.Date(2026, time.March, 14, 16, 30, 0, 0, time.UTC)
	source := &staticSnapshotSource{snapshot: dashboard.Snapshot{
		TakenAt: takenAt,
		States: map[string]timer.State{
			"bk-1": timer.Countdown(90),
			"bk-2": timer.Upcoming(3600),
		},
		RoomStatuses: map[string]availability.RoomStatus{
			"rm-1": {RoomID: "rm-1", RoomName: "هۆڵی سەرەکی", Available: false, Label: "داگیراوە", HourCost: 25000},
		},
		Warnings: []availability.Warning{{RoomName: "هۆڵی سەرەکی", BookingIDs: []string{"bk-1", "bk-3"}}},
	}}

	router := NewRouter(RouterConfig{Dashboard: NewDashboardHandler(source, discardLogger())})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp snapshotDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Timers) != 2 {
		t.Fatalf("timer count = %d, want 2", len(resp.Timers))
	}
	if resp.Timers[0].BookingID != "bk-1" || resp.Timers[0].Kind != "countdown" {
		t.Errorf("first timer = %+v, want bk-1 countdown", resp.Timers[0])
	}
	if resp.Timers[0].Display != "٠٠:٠١:٣٠" {
		t.Errorf("display = %q, want localized ٠٠:٠١:٣٠", resp.Timers[0].Display)
	}
	if len(resp.Rooms) != 1 || resp.Rooms[0].Label != "داگیراوە" {
		t.Errorf("rooms = %+v, want busy label", resp.Rooms)
	}
	if len(resp.Warnings) != 1 || len(resp.Warnings[0].BookingIDs) != 2 {
		t.Errorf("warnings = %+v, want one with two booking ids", resp.Warnings)
	}
	if resp.TakenAt != takenAt.Format(time.RFC3339Nano) {
		t.Errorf("taken_at = %q, want %q", resp.TakenAt, takenAt.Format(time.RFC3339Nano))
	}
}

func TestDashboardStreamSendsLatestImmediately(t *testing.T) {
	source := &staticSnapshotSource{snapshot: dashboard.Snapshot{
		TakenAt: time.Date(2026, time.March, 14, 16, 30, 0, 0, time.UTC),
		States:  map[string]timer.State{"bk-1": timer.CountUp(5)},
	}}
	handler := NewDashboardHandler(source, discardLogger())

	// The first event precedes the select loop, so a cancelled context still
	// yields exactly one event and a prompt return.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler.Stream(rec, req)

	if !strings.HasPrefix(rec.Body.String(), "data: ") {
		t.Fatalf("body = %q, want a server-sent event", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}

	line := strings.TrimPrefix(strings.SplitN(rec.Body.String(), "\n", 2)[0], "data: ")
	var resp snapshotDTO
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("decode event payload: %v", err)
	}
	if len(resp.Timers) != 1 || resp.Timers[0].Kind != "count_up" {
		t.Errorf("timers = %+v, want one count_up entry", resp.Timers)
	}
}

func TestHandleServiceErrorUnexpected(t *testing.T) {
	service := &fakeBookingHandlerService{createErr: errors.New("disk on fire")}
	router := newBookingRouter(service, application.Principal{OperatorID: "op-1"})

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"room_name":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Error("internal error detail leaked to the client")
	}
}
