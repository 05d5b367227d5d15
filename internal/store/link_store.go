package store

import (
	"context"
	"fmt"
)

// AddTodoTag links a tag to a todo. The insert is a single atomic
// statement; an existing link is left untouched, so concurrent adds of
// the same pair cannot produce duplicates or lose updates.
func (s *SQLiteStore) AddTodoTag(ctx context.Context, todoID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO todo_tags (todo_id, tag_id) VALUES (?, ?)",
		todoID, tagID,
	)
	if err != nil {
		return fmt.Errorf("linking tag %s to todo %s: %w", tagID, todoID, err)
	}
	return nil
}

// RemoveTodoTag unlinks a tag from a todo. Removing a link that does
// not exist is a no-op.
func (s *SQLiteStore) RemoveTodoTag(ctx context.Context, todoID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM todo_tags WHERE todo_id = ? AND tag_id = ?",
		todoID, tagID,
	)
	if err != nil {
		return fmt.Errorf("unlinking tag %s from todo %s: %w", tagID, todoID, err)
	}
	return nil
}

// TodoHasTag reports whether the todo is currently linked to the tag.
func (s *SQLiteStore) TodoHasTag(ctx context.Context, todoID, tagID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM todo_tags WHERE todo_id = ? AND tag_id = ?",
		todoID, tagID,
	)
	if err != nil {
		return false, fmt.Errorf("checking link %s/%s: %w", todoID, tagID, err)
	}
	return count > 0, nil
}
