package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

type fakeRoomRepository struct {
	rooms   map[string]Room
	listErr error
}

func newFakeRoomRepository() *fakeRoomRepository {
	return &fakeRoomRepository{rooms: make(map[string]Room)}
}

func (f *fakeRoomRepository) CreateRoom(_ context.Context, room Room) (Room, error) {
	for _, existing := range f.rooms {
		if existing.Name == room.Name {
			return Room{}, persistence.ErrDuplicate
		}
	}
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeRoomRepository) GetRoom(_ context.Context, id string) (Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (f *fakeRoomRepository) UpdateRoom(_ context.Context, room Room) (Room, error) {
	if _, ok := f.rooms[room.ID]; !ok {
		return Room{}, persistence.ErrNotFound
	}
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeRoomRepository) DeleteRoom(_ context.Context, id string) error {
	if _, ok := f.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.rooms, id)
	return nil
}

func (f *fakeRoomRepository) ListRooms(_ context.Context) ([]Room, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		out = append(out, room)
	}
	return out, nil
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	admin := Principal{OperatorID: "admin", IsAdmin: true}
	staff := Principal{OperatorID: "staff"}

	cases := []struct {
		name      string
		principal Principal
		input     RoomInput
		wantErr   error
		wantField string
	}{
		{
			name:      "admin creates room",
			principal: admin,
			input:     RoomInput{Name: "hall", Available: true, HourCost: 5000},
		},
		{
			name:      "non-admin rejected",
			principal: staff,
			input:     RoomInput{Name: "hall", HourCost: 5000},
			wantErr:   ErrUnauthorized,
		},
		{
			name:      "blank name rejected",
			principal: admin,
			input:     RoomInput{Name: "   ", HourCost: 5000},
			wantField: "name",
		},
		{
			name:      "negative hour cost rejected",
			principal: admin,
			input:     RoomInput{Name: "hall", HourCost: -1},
			wantField: "hour_cost",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeRoomRepository()
			service := NewRoomService(repo, nil, sequentialIDs("room"), func() time.Time { return base })

			room, err := service.CreateRoom(context.Background(), CreateRoomParams{Principal: tc.principal, Input: tc.input})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if tc.wantField != "" {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if _, ok := vErr.FieldErrors[tc.wantField]; !ok {
					t.Fatalf("expected field %q flagged, got %+v", tc.wantField, vErr.FieldErrors)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if room.ID == "" || room.Name != "hall" || !room.Available || room.HourCost != 5000 {
				t.Fatalf("unexpected room %+v", room)
			}
			if !room.CreatedAt.Equal(base) || !room.UpdatedAt.Equal(base) {
				t.Fatalf("unexpected timestamps %+v", room)
			}
		})
	}
}

func TestCreateRoomDuplicateName(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	admin := Principal{OperatorID: "admin", IsAdmin: true}
	repo := newFakeRoomRepository()
	service := NewRoomService(repo, nil, sequentialIDs("room"), func() time.Time { return base })

	if _, err := service.CreateRoom(context.Background(), CreateRoomParams{Principal: admin, Input: RoomInput{Name: "hall"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.CreateRoom(context.Background(), CreateRoomParams{Principal: admin, Input: RoomInput{Name: "hall"}}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestSetAvailability(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	repo := newFakeRoomRepository()
	repo.rooms["room-1"] = Room{ID: "room-1", Name: "hall", Available: true, CreatedAt: base, UpdatedAt: base}
	service := NewRoomService(repo, nil, sequentialIDs("room"), func() time.Time { return base.Add(time.Hour) })

	staff := Principal{OperatorID: "staff"}
	room, err := service.SetAvailability(context.Background(), staff, "room-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.Available {
		t.Fatalf("expected availability flipped")
	}
	if !room.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected update stamp refreshed, got %v", room.UpdatedAt)
	}

	if _, err := service.SetAvailability(context.Background(), staff, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRoomsSortsByName(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	repo := newFakeRoomRepository()
	repo.rooms["r2"] = Room{ID: "r2", Name: "Zebra"}
	repo.rooms["r1"] = Room{ID: "r1", Name: "annex"}
	service := NewRoomService(repo, nil, sequentialIDs("room"), func() time.Time { return base })

	rooms, err := service.ListRooms(context.Background(), Principal{OperatorID: "staff"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "annex" || rooms[1].Name != "Zebra" {
		t.Fatalf("unexpected order %+v", rooms)
	}
}

func TestDeleteRoomRequiresAdmin(t *testing.T) {
	t.Parallel()

	repo := newFakeRoomRepository()
	repo.rooms["room-1"] = Room{ID: "room-1", Name: "hall"}
	service := NewRoomService(repo, nil, sequentialIDs("room"), nil)

	if err := service.DeleteRoom(context.Background(), Principal{OperatorID: "staff"}, "room-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := service.DeleteRoom(context.Background(), Principal{OperatorID: "admin", IsAdmin: true}, "room-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rooms) != 0 {
		t.Fatalf("expected room removed")
	}
}
