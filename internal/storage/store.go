package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// ErrNotFound is returned when an addressed item or tag does not exist.
var ErrNotFound = errors.New("not found")

// Store gives typed access to the content library.
type Store struct {
	db *DB
}

// NewStore wraps an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

const itemColumns = "id, type, subtype, title, url, content, image_data, source_tag_id, created_at, updated_at"

// SaveItem inserts a content item. Missing IDs and timestamps are filled in.
func (s *Store) SaveItem(ctx context.Context, item *wire.ContentItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UnixMilli()
	if item.CreatedAt == 0 {
		item.CreatedAt = now
	}
	if item.UpdatedAt == 0 {
		item.UpdatedAt = item.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Type, item.Subtype, item.Title, item.URL,
		item.Content, item.ImageData, item.SourceTagID,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// SaveAnalysis inserts an analysis item, replacing any previous analysis of
// the same subtype for the same source tag so regeneration does not pile up
// duplicates.
func (s *Store) SaveAnalysis(ctx context.Context, item *wire.ContentItem) error {
	if item.SourceTagID == "" || item.Subtype == "" {
		return fmt.Errorf("analysis item requires source tag and subtype")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UnixMilli()
	if item.CreatedAt == 0 {
		item.CreatedAt = now
	}
	if item.UpdatedAt == 0 {
		item.UpdatedAt = item.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM content_items WHERE type = ? AND subtype = ? AND source_tag_id = ?",
		wire.ItemTypeAnalysis, item.Subtype, item.SourceTagID,
	)
	if err != nil {
		return fmt.Errorf("drop previous analysis: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, wire.ItemTypeAnalysis, item.Subtype, item.Title, item.URL,
		item.Content, item.ImageData, item.SourceTagID,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	return tx.Commit()
}

// GetItem loads one item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (wire.ContentItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM content_items WHERE id = ?", id)
	return scanItem(row)
}

// ListItems returns every saved item, newest first.
func (s *Store) ListItems(ctx context.Context) ([]wire.ContentItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM content_items ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListItemsByTag returns the items carrying a tag, newest first.
func (s *Store) ListItemsByTag(ctx context.Context, tagID string) ([]wire.ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedItemColumns("i")+`
		FROM content_items i
		JOIN content_tags ct ON ct.item_id = i.id
		WHERE ct.tag_id = ?
		ORDER BY i.created_at DESC, i.id`, tagID)
	if err != nil {
		return nil, fmt.Errorf("list items by tag: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// DeleteItem removes an item. Tag links go with it via cascade.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM content_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTags returns all tags sorted by name.
func (s *Store) ListTags(ctx context.Context) ([]wire.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM tags ORDER BY name_lower")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

// GetTag loads one tag by ID.
func (s *Store) GetTag(ctx context.Context, id string) (wire.Tag, error) {
	var t wire.Tag
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM tags WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return wire.Tag{}, ErrNotFound
	}
	if err != nil {
		return wire.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// EnsureTag finds the tag with the given name, creating it when missing.
// Matching is case-insensitive; the stored name keeps the first spelling.
func (s *Store) EnsureTag(ctx context.Context, name string) (wire.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return wire.Tag{}, fmt.Errorf("tag name is empty")
	}
	lower := strings.ToLower(name)

	var t wire.Tag
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM tags WHERE name_lower = ?", lower).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return wire.Tag{}, fmt.Errorf("lookup tag: %w", err)
	}

	t = wire.Tag{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UnixMilli()}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tags (id, name, name_lower, created_at) VALUES (?, ?, ?, ?)",
		t.ID, t.Name, lower, t.CreatedAt)
	if err != nil {
		// A concurrent insert may have won; fall back to the stored row.
		var existing wire.Tag
		lookupErr := s.db.QueryRowContext(ctx,
			"SELECT id, name, created_at FROM tags WHERE name_lower = ?", lower).
			Scan(&existing.ID, &existing.Name, &existing.CreatedAt)
		if lookupErr == nil {
			return existing, nil
		}
		return wire.Tag{}, fmt.Errorf("insert tag: %w", err)
	}
	return t, nil
}

// TagsForItem returns the tags attached to an item, sorted by name.
func (s *Store) TagsForItem(ctx context.Context, itemID string) ([]wire.Tag, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.created_at
		FROM tags t
		JOIN content_tags ct ON ct.tag_id = t.id
		WHERE ct.item_id = ?
		ORDER BY t.name_lower`, itemID)
	if err != nil {
		return nil, fmt.Errorf("tags for item: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

// AttachTag links a tag to an item. Attaching twice is a no-op.
func (s *Store) AttachTag(ctx context.Context, itemID, tagID string) error {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return err
	}
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO content_tags (item_id, tag_id, created_at) VALUES (?, ?, ?)",
		itemID, tagID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

// DetachTag unlinks a tag from an item.
func (s *Store) DetachTag(ctx context.Context, itemID, tagID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM content_tags WHERE item_id = ? AND tag_id = ?", itemID, tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (wire.ContentItem, error) {
	var it wire.ContentItem
	err := row.Scan(&it.ID, &it.Type, &it.Subtype, &it.Title, &it.URL,
		&it.Content, &it.ImageData, &it.SourceTagID, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return wire.ContentItem{}, ErrNotFound
	}
	if err != nil {
		return wire.ContentItem{}, fmt.Errorf("scan item: %w", err)
	}
	return it, nil
}

func collectItems(rows *sql.Rows) ([]wire.ContentItem, error) {
	items := []wire.ContentItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func collectTags(rows *sql.Rows) ([]wire.Tag, error) {
	tags := []wire.Tag{}
	for rows.Next() {
		var t wire.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func prefixedItemColumns(alias string) string {
	cols := strings.Split(itemColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
