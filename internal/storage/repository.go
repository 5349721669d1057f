package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/habitd/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Repository persists whole aggregates. Every save replaces the stored rows
// of that aggregate, including its ledger.
type Repository interface {
	LoadCollection(ctx context.Context) (model.Collection, error)
	SaveCollection(ctx context.Context, c model.Collection) error

	SaveHabit(ctx context.Context, h *model.Habit) error
	DeleteHabit(ctx context.Context, id string) error

	SaveRoutine(ctx context.Context, r *model.Routine) error
	DeleteRoutine(ctx context.Context, id string) error
}
