package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
)

// CreateTag inserts a new tag. A duplicate name is a conflict; a
// category reference must exist at creation time.
func (s *SQLiteStore) CreateTag(
	ctx context.Context,
	tag model.Tag,
) (*model.Tag, error) {
	if strings.TrimSpace(tag.Name) == "" {
		return nil, fmt.Errorf("tag name must not be empty: %w", ErrValidation)
	}
	if tag.Color == "" {
		tag.Color = model.DefaultTagColor
	}
	if tag.CategoryID != nil {
		exists, err := s.CategoryExists(ctx, *tag.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("category %s does not exist: %w", *tag.CategoryID, ErrValidation)
		}
	}
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	tag.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (id, name, color, category_id, created_at) VALUES (?, ?, ?, ?, ?)",
		tag.ID, tag.Name, tag.Color, tag.CategoryID, tag.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("tag name %q already exists: %w", tag.Name, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	return &tag, nil
}

// UpdateTag applies a partial update to a tag.
func (s *SQLiteStore) UpdateTag(
	ctx context.Context,
	id string,
	patch TagPatch,
) (*model.Tag, error) {
	var sets []string
	var args []interface{}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("tag name must not be empty: %w", ErrValidation)
		}
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *patch.Color)
	}
	if patch.CategoryID != nil {
		exists, err := s.CategoryExists(ctx, *patch.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("category %s does not exist: %w", *patch.CategoryID, ErrValidation)
		}
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}

	if len(sets) == 0 {
		return s.GetTagByID(ctx, id)
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		"UPDATE tags SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if isUniqueViolation(err) && patch.Name != nil {
		return nil, fmt.Errorf("tag name %q already exists: %w", *patch.Name, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("updating tag %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}

	return s.GetTagByID(ctx, id)
}

// DeleteTag removes a tag. CASCADE on todo_tags prunes associations.
func (s *SQLiteStore) DeleteTag(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTags retrieves all tags ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, name, color, category_id, created_at FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CategoryID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTagByID retrieves a single tag by ID.
func (s *SQLiteStore) GetTagByID(
	ctx context.Context,
	id string,
) (*model.Tag, error) {
	var t model.Tag
	err := s.db.QueryRowxContext(ctx,
		"SELECT id, name, color, category_id, created_at FROM tags WHERE id = ?",
		id).Scan(&t.ID, &t.Name, &t.Color, &t.CategoryID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag %s: %w", id, err)
	}
	return &t, nil
}

// TagExists reports whether a tag with the given ID exists.
func (s *SQLiteStore) TagExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM tags WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("checking tag %s: %w", id, err)
	}
	return count > 0, nil
}

// GetTagsForTodo retrieves all tags associated with a todo.
func (s *SQLiteStore) GetTagsForTodo(
	ctx context.Context,
	todoID string,
) ([]model.Tag, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT t.id, t.name, t.color, t.category_id, t.created_at FROM tags t
		INNER JOIN todo_tags tt ON t.id = tt.tag_id
		WHERE tt.todo_id = ?
		ORDER BY t.name`, todoID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for todo %s: %w", todoID, err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CategoryID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
