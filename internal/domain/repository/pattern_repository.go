package repository

import (
	"context"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/pattern"
)

// PatternRepository is the persistence boundary for recurring patterns.
type PatternRepository interface {
	// FindByID retrieves a pattern owned by the user.
	FindByID(ctx context.Context, id model.PatternID, userID model.UserID) (*pattern.RecurringPattern, error)

	// FindActive retrieves the user's active patterns.
	FindActive(ctx context.Context, userID model.UserID) ([]*pattern.RecurringPattern, error)

	// Create persists a new pattern.
	Create(ctx context.Context, p *pattern.RecurringPattern) error

	// Update persists changes to an existing pattern.
	Update(ctx context.Context, p *pattern.RecurringPattern) error

	// Delete removes a pattern. Cascading to its instances is the
	// caller's concern; the repository removes only the pattern row.
	Delete(ctx context.Context, id model.PatternID, userID model.UserID) error
}
