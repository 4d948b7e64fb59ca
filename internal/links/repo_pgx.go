package links

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/linkcut/linkcut/internal/errx"
	"github.com/linkcut/linkcut/internal/idgen"
)

const linkColumns = "id, code, long_url, click_count, last_clicked, created_at"

// dbconn is the subset of *pgxpool.Pool the repository needs.
type dbconn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repo struct {
	db  dbconn
	ids idgen.Generator
}

// RepositoryConfig holds configuration for the repository
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewRepository creates a Repository backed by PostgreSQL.
func NewRepository(db dbconn, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	// Default: UUID v7 (good for DB locality). Retry once by default inside idgen.NewV7.
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}

	return &repo{
		db:  db,
		ids: config.IDGenerator,
	}
}

// normalizeTime converts a store-native timestamp to canonical UTC with
// millisecond precision. The service layer only ever sees this form.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := normalizeTime(ts.Time)
	return &t
}

func scanLink(row pgx.Row) (Link, error) {
	var (
		link        Link
		lastClicked pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(&link.ID, &link.Code, &link.LongURL, &link.ClickCount, &lastClicked, &createdAt)
	if err != nil {
		return Link{}, err
	}

	link.LastClicked = timePtr(lastClicked)
	if createdAt.Valid {
		link.CreatedAt = normalizeTime(createdAt.Time)
	}
	return link, nil
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isCodeUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *repo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "links.repo.Create"

	// Generate ID if not provided
	if link.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}

	row := r.db.QueryRow(ctx,
		"INSERT INTO links (id, code, long_url) VALUES ($1, $2, $3) RETURNING "+linkColumns,
		link.ID, link.Code, link.LongURL,
	)

	created, err := scanLink(row)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return created, nil
}

func (r *repo) FindByCode(ctx context.Context, code string) (Link, error) {
	const op = "links.repo.FindByCode"

	row := r.db.QueryRow(ctx,
		"SELECT "+linkColumns+" FROM links WHERE code = $1",
		code,
	)

	link, err := scanLink(row)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *repo) FindAll(ctx context.Context) ([]Link, error) {
	const op = "links.repo.FindAll"

	rows, err := r.db.Query(ctx,
		"SELECT "+linkColumns+" FROM links ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	defer rows.Close()

	result := []Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, mapRepoError(op, err)
		}
		result = append(result, link)
	}
	if err := rows.Err(); err != nil {
		return nil, mapRepoError(op, err)
	}
	return result, nil
}

// IncrementClick is the redirect hot path: a single UPDATE ... RETURNING does
// the read-modify-write atomically, so concurrent redirects never lose counts.
func (r *repo) IncrementClick(ctx context.Context, code string) (Link, error) {
	const op = "links.repo.IncrementClick"

	row := r.db.QueryRow(ctx,
		"UPDATE links SET click_count = click_count + 1, last_clicked = now() WHERE code = $1 RETURNING "+linkColumns,
		code,
	)

	link, err := scanLink(row)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *repo) Delete(ctx context.Context, code string) (bool, error) {
	const op = "links.repo.Delete"

	tag, err := r.db.Exec(ctx, "DELETE FROM links WHERE code = $1", code)
	if err != nil {
		return false, mapRepoError(op, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) Exists(ctx context.Context, code string) (bool, error) {
	const op = "links.repo.Exists"

	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM links WHERE code = $1)",
		code,
	).Scan(&exists)
	if err != nil {
		return false, mapRepoError(op, err)
	}
	return exists, nil
}
