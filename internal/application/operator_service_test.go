package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/rental-dashboard/internal/persistence"
)

type fakeOperatorRepository struct {
	operators map[string]Operator
	hashes    map[string]string
}

func newFakeOperatorRepository() *fakeOperatorRepository {
	return &fakeOperatorRepository{
		operators: make(map[string]Operator),
		hashes:    make(map[string]string),
	}
}

func (f *fakeOperatorRepository) CreateOperator(_ context.Context, operator Operator, passwordHash string) (Operator, error) {
	for _, existing := range f.operators {
		if existing.Email == operator.Email {
			return Operator{}, persistence.ErrDuplicate
		}
	}
	f.operators[operator.ID] = operator
	f.hashes[operator.ID] = passwordHash
	return operator, nil
}

func (f *fakeOperatorRepository) GetOperator(_ context.Context, id string) (Operator, error) {
	operator, ok := f.operators[id]
	if !ok {
		return Operator{}, persistence.ErrNotFound
	}
	return operator, nil
}

func (f *fakeOperatorRepository) UpdateOperator(_ context.Context, operator Operator) (Operator, error) {
	if _, ok := f.operators[operator.ID]; !ok {
		return Operator{}, persistence.ErrNotFound
	}
	f.operators[operator.ID] = operator
	return operator, nil
}

func (f *fakeOperatorRepository) DeleteOperator(_ context.Context, id string) error {
	if _, ok := f.operators[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.operators, id)
	delete(f.hashes, id)
	return nil
}

func (f *fakeOperatorRepository) ListOperators(_ context.Context) ([]Operator, error) {
	out := make([]Operator, 0, len(f.operators))
	for _, operator := range f.operators {
		out = append(out, operator)
	}
	return out, nil
}

func testPasswordHasher(password string) (string, error) {
	return "hash:" + password, nil
}

func TestCreateOperator(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	admin := Principal{OperatorID: "admin", IsAdmin: true}

	cases := []struct {
		name      string
		principal Principal
		input     OperatorInput
		wantErr   error
		wantField string
	}{
		{
			name:      "admin creates operator",
			principal: admin,
			input:     OperatorInput{Email: " Desk@Example.com ", DisplayName: "Desk", Password: "longenough"},
		},
		{
			name:      "non-admin rejected",
			principal: Principal{OperatorID: "staff"},
			input:     OperatorInput{Email: "desk@example.com", DisplayName: "Desk", Password: "longenough"},
			wantErr:   ErrUnauthorized,
		},
		{
			name:      "invalid email rejected",
			principal: admin,
			input:     OperatorInput{Email: "not-an-email", DisplayName: "Desk", Password: "longenough"},
			wantField: "email",
		},
		{
			name:      "missing display name rejected",
			principal: admin,
			input:     OperatorInput{Email: "desk@example.com", Password: "longenough"},
			wantField: "display_name",
		},
		{
			name:      "short password rejected",
			principal: admin,
			input:     OperatorInput{Email: "desk@example.com", DisplayName: "Desk", Password: "short"},
			wantField: "password",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeOperatorRepository()
			service := NewOperatorService(repo, testPasswordHasher, sequentialIDs("op"), func() time.Time { return base })

			operator, err := service.CreateOperator(context.Background(), CreateOperatorParams{Principal: tc.principal, Input: tc.input})
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
			if operator.Email != "desk@example.com" {
				t.Fatalf("expected normalized email, got %q", operator.Email)
			}
			if !strings.HasPrefix(repo.hashes[operator.ID], "hash:") {
				t.Fatalf("expected hashed password stored, got %q", repo.hashes[operator.ID])
			}
		})
	}
}

func TestCreateOperatorDuplicateEmail(t *testing.T) {
	t.Parallel()

	admin := Principal{OperatorID: "admin", IsAdmin: true}
	repo := newFakeOperatorRepository()
	service := NewOperatorService(repo, testPasswordHasher, sequentialIDs("op"), nil)

	input := OperatorInput{Email: "desk@example.com", DisplayName: "Desk", Password: "longenough"}
	if _, err := service.CreateOperator(context.Background(), CreateOperatorParams{Principal: admin, Input: input}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.CreateOperator(context.Background(), CreateOperatorParams{Principal: admin, Input: input}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestUpdateOperator(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	admin := Principal{OperatorID: "admin", IsAdmin: true}
	repo := newFakeOperatorRepository()
	repo.operators["op-1"] = Operator{ID: "op-1", Email: "desk@example.com", DisplayName: "Desk", CreatedAt: base, UpdatedAt: base}
	service := NewOperatorService(repo, testPasswordHasher, sequentialIDs("op"), func() time.Time { return base.Add(time.Hour) })

	updated, err := service.UpdateOperator(context.Background(), UpdateOperatorParams{
		Principal:  admin,
		OperatorID: "op-1",
		Input:      OperatorInput{Email: "desk@example.com", DisplayName: "Front Desk", IsAdmin: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DisplayName != "Front Desk" || !updated.IsAdmin {
		t.Fatalf("unexpected operator %+v", updated)
	}
	if !updated.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected update stamp refreshed")
	}

	if _, err := service.UpdateOperator(context.Background(), UpdateOperatorParams{
		Principal:  admin,
		OperatorID: "missing",
		Input:      OperatorInput{Email: "desk@example.com", DisplayName: "Desk"},
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOperatorsRequiresAdmin(t *testing.T) {
	t.Parallel()

	repo := newFakeOperatorRepository()
	repo.operators["op-1"] = Operator{ID: "op-1", Email: "b@example.com"}
	repo.operators["op-2"] = Operator{ID: "op-2", Email: "a@example.com"}
	service := NewOperatorService(repo, testPasswordHasher, sequentialIDs("op"), nil)

	if _, err := service.ListOperators(context.Background(), Principal{OperatorID: "staff"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	operators, err := service.ListOperators(context.Background(), Principal{OperatorID: "admin", IsAdmin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(operators) != 2 || operators[0].Email != "a@example.com" {
		t.Fatalf("unexpected order %+v", operators)
	}
}
