package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/example/rental-dashboard/internal/dashboard"
)

// SnapshotSource exposes the scheduler's published snapshots to the handler.
type SnapshotSource interface {
	Latest() dashboard.Snapshot
	Subscribe() (<-chan dashboard.Snapshot, func())
}

type DashboardHandler struct {
	source    SnapshotSource
	responder responder
	logger    *slog.Logger
}

func NewDashboardHandler(source SnapshotSource, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{source: source, responder: newResponder(base), logger: base}
}

func (h *DashboardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DashboardHandler", operation, attrs...)
}

// Snapshot serves the most recent tick result as a single JSON document.
func (h *DashboardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.source == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	snapshot := h.source.Latest()
	h.log(r.Context(), "Snapshot", "timer_count", len(snapshot.States)).InfoContext(r.Context(), "snapshot served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSnapshotDTO(snapshot))
}

// Stream pushes one JSON snapshot per tick over server-sent events until the
// client disconnects. A slow client misses ticks instead of stalling the loop.
func (h *DashboardHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.source == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.log(r.Context(), "Stream", "error_kind", "unsupported").ErrorContext(r.Context(), "response writer does not support streaming")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := h.log(r.Context(), "Stream")
	logger.InfoContext(r.Context(), "snapshot stream opened")

	snapshots, cancel := h.source.Subscribe()
	defer cancel()

	// The latest snapshot goes out immediately so the client does not wait a
	// full tick for its first render.
	if err := writeSnapshotEvent(w, h.source.Latest()); err != nil {
		logger.ErrorContext(r.Context(), "failed to write snapshot event", "error", err)
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			logger.InfoContext(r.Context(), "snapshot stream closed")
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if err := writeSnapshotEvent(w, snapshot); err != nil {
				logger.ErrorContext(r.Context(), "failed to write snapshot event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshotEvent(w http.ResponseWriter, snapshot dashboard.Snapshot) error {
	payload, err := json.Marshal(toSnapshotDTO(snapshot))
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}

type snapshotDTO struct {
	TakenAt  string           `json:"taken_at"`
	Timers   []timerDTO       `json:"timers"`
	Rooms    []roomStatusDTO  `json:"rooms"`
	Warnings []roomWarningDTO `json:"warnings,omitempty"`
}

type timerDTO struct {
	BookingID string `json:"booking_id"`
	Kind      string `json:"kind"`
	Seconds   int64  `json:"seconds"`
	Display   string `json:"display"`
}

type roomStatusDTO struct {
	RoomID    string `json:"room_id"`
	RoomName  string `json:"room_name"`
	Available bool   `json:"available"`
	Label     string `json:"label"`
	HourCost  int64  `json:"hour_cost"`
}

type roomWarningDTO struct {
	RoomName   string   `json:"room_name"`
	BookingIDs []string `json:"booking_ids"`
}

func toSnapshotDTO(snapshot dashboard.Snapshot) snapshotDTO {
	timers := make([]timerDTO, 0, len(snapshot.States))
	for bookingID, state := range snapshot.States {
		timers = append(timers, timerDTO{
			BookingID: bookingID,
			Kind:      state.Kind().String(),
			Seconds:   state.Seconds(),
			Display:   state.Display(),
		})
	}
	sort.Slice(timers, func(i, j int) bool { return timers[i].BookingID < timers[j].BookingID })

	rooms := make([]roomStatusDTO, 0, len(snapshot.RoomStatuses))
	for _, status := range snapshot.RoomStatuses {
		rooms = append(rooms, roomStatusDTO{
			RoomID:    status.RoomID,
			RoomName:  status.RoomName,
			Available: status.Available,
			Label:     status.Label,
			HourCost:  status.HourCost,
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomName < rooms[j].RoomName })

	warnings := make([]roomWarningDTO, 0, len(snapshot.Warnings))
	for _, warning := range snapshot.Warnings {
		warnings = append(warnings, roomWarningDTO{
			RoomName:   warning.RoomName,
			BookingIDs: append([]string(nil), warning.BookingIDs...),
		})
	}
	if len(warnings) == 0 {
		warnings = nil
	}

	takenAt := ""
	if !snapshot.TakenAt.IsZero() {
		takenAt = snapshot.TakenAt.UTC().Format(time.RFC3339Nano)
	}

	return snapshotDTO{
		TakenAt:  takenAt,
		Timers:   timers,
		Rooms:    rooms,
		Warnings: warnings,
	}
}
