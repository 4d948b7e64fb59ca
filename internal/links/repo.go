package links

import "context"

// Repository defines the persistence operations for Link entities.
// The durable table is keyed by code; its uniqueness constraint is the
// source of truth for code collisions.
type Repository interface {
	// Create inserts a new link with a zero click count. A code collision
	// surfaces as an errx.Conflict error.
	Create(ctx context.Context, link Link) (Link, error)
	// FindByCode returns the link for code, or an errx.NotFound error.
	FindByCode(ctx context.Context, code string) (Link, error)
	// FindAll returns a one-shot snapshot of every link, newest first.
	FindAll(ctx context.Context) ([]Link, error)
	// IncrementClick atomically bumps the click count and stamps the last
	// click time in a single statement, returning the post-update row.
	IncrementClick(ctx context.Context, code string) (Link, error)
	// Delete removes the row and reports whether a row was actually removed.
	Delete(ctx context.Context, code string) (bool, error)
	// Exists is a cheap existence check used during code allocation.
	Exists(ctx context.Context, code string) (bool, error)
}
