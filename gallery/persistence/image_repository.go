package persistence

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/dfryer1193/gogallery/shared/db"
)

var _ domain.ImageRepository = (*SQLiteImageRepository)(nil)

// SQLiteImageRepository implements domain.ImageRepository using SQL database (SQLite)
type SQLiteImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new SQLiteImageRepository from a standard sql.DB
func NewImageRepository(sqlDB *sql.DB) *SQLiteImageRepository {
	return &SQLiteImageRepository{
		db: sqlDB,
	}
}

const insertImageQuery = `
	INSERT INTO images (id, title, description, url, ts)
	VALUES (?, ?, ?, ?, ?)
`

// SaveImage inserts a new record. Records are immutable, so saving an id
// twice is an error.
func (r *SQLiteImageRepository) SaveImage(ctx context.Context, img *domain.ImageRecord) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	if img.ID == "" {
		return fmt.Errorf("image ID cannot be empty")
	}

	if img.CreatedAt.IsZero() {
		return fmt.Errorf("image %s has no creation time", img.ID)
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, insertImageQuery,
			img.ID,
			img.Title,
			img.Description,
			img.URL,
			img.CreatedAt.UnixMicro(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert image record: %w", err)
		}

		return nil
	})
}

const getImageQuery = `
	SELECT id, title, description, url, ts
	FROM images
	WHERE id = ?
`

// GetImage retrieves a single record by id
func (r *SQLiteImageRepository) GetImage(ctx context.Context, id string) (*domain.ImageRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("image ID cannot be empty")
	}

	var row imageRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getImageQuery, id).Scan(
		&row.ID,
		&row.Title,
		&row.Description,
		&row.URL,
		&row.TS,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return row.toDomain(), nil
}

const listHeadQuery = `
	SELECT id, title, description, url, ts
	FROM images
	ORDER BY ts DESC, id DESC
	LIMIT ?
`

const listAfterQuery = `
	SELECT id, title, description, url, ts
	FROM images
	WHERE ts < ? OR (ts = ? AND id < ?)
	ORDER BY ts DESC, id DESC
	LIMIT ?
`

// ListImages returns up to limit records, newest first, strictly after the
// position encoded in cursor. The returned page carries the cursor of its
// last record when more records follow, and an empty cursor otherwise.
func (r *SQLiteImageRepository) ListImages(ctx context.Context, cursor string, limit int) (domain.Page, error) {
	if limit <= 0 {
		limit = 6
	}

	var (
		rows *sql.Rows
		err  error
	)
	executor := db.GetExecutor(ctx, r.db)

	// one extra row tells whether another page exists
	if cursor == "" {
		rows, err = executor.QueryContext(ctx, listHeadQuery, limit+1)
	} else {
		pos, decodeErr := decodeCursor(cursor)
		if decodeErr != nil {
			return domain.Page{}, decodeErr
		}
		rows, err = executor.QueryContext(ctx, listAfterQuery, pos.ts, pos.ts, pos.id, limit+1)
	}
	if err != nil {
		return domain.Page{}, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ImageRecord, 0, limit)
	hasMore := false
	for rows.Next() {
		if len(items) == limit {
			hasMore = true
			break
		}

		var row imageRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Description, &row.URL, &row.TS); err != nil {
			return domain.Page{}, fmt.Errorf("failed to scan image row: %w", err)
		}
		items = append(items, *row.toDomain())
	}

	if err = rows.Err(); err != nil {
		return domain.Page{}, fmt.Errorf("error iterating image rows: %w", err)
	}

	page := domain.Page{Items: items}
	if hasMore {
		last := items[len(items)-1]
		page.Cursor = encodeCursor(position{ts: last.CreatedAt.UnixMicro(), id: last.ID})
	}

	return page, nil
}

// position is the keyset of one record in feed order
type position struct {
	ts int64
	id string
}

func encodeCursor(p position) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(p.ts, 10) + ":" + p.id))
}

func decodeCursor(cursor string) (position, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return position{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}

	tsPart, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return position{}, fmt.Errorf("%w: malformed position", domain.ErrInvalidCursor)
	}

	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return position{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}

	return position{ts: ts, id: id}, nil
}

// imageRow is a private struct used to scan database rows
type imageRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	URL         string `db:"url"`
	TS          int64  `db:"ts"`
}

// toDomain converts an imageRow to a domain.ImageRecord
func (ir *imageRow) toDomain() *domain.ImageRecord {
	return &domain.ImageRecord{
		ID:          ir.ID,
		Title:       ir.Title,
		Description: ir.Description,
		URL:         ir.URL,
		CreatedAt:   time.UnixMicro(ir.TS).UTC(),
	}
}
