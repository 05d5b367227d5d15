// Package relation maintains the many-to-many association between
// todos and tags.
package relation

import (
	"context"
	"fmt"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Service mutates and queries todo-tag links. Adds are idempotent:
// linking an already-linked tag leaves the set unchanged, and removing
// a non-linked tag is a no-op.
type Service struct {
	store store.Store
}

// NewService returns a relation service backed by s.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// AddTag links tagID to the todo and returns the updated todo with its
// tags resolved. Both the todo and the tag must exist.
func (s *Service) AddTag(
	ctx context.Context,
	todoID, tagID string,
) (*model.Todo, error) {
	if _, err := s.store.GetTodoByID(ctx, todoID); err != nil {
		return nil, err
	}
	exists, err := s.store.TagExists(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("tag %s: %w", tagID, store.ErrNotFound)
	}

	if err := s.store.AddTodoTag(ctx, todoID, tagID); err != nil {
		return nil, err
	}
	return s.store.GetTodoByID(ctx, todoID)
}

// RemoveTag unlinks tagID from the todo and returns the updated todo.
// The todo must exist; the link itself need not.
func (s *Service) RemoveTag(
	ctx context.Context,
	todoID, tagID string,
) (*model.Todo, error) {
	if _, err := s.store.GetTodoByID(ctx, todoID); err != nil {
		return nil, err
	}
	if err := s.store.RemoveTodoTag(ctx, todoID, tagID); err != nil {
		return nil, err
	}
	return s.store.GetTodoByID(ctx, todoID)
}

// BulkAdd links each tag in tagIDs to the todo. Duplicate ids in the
// input collapse to a single link. Every tag must exist; links created
// before a missing tag is detected are kept (no rollback).
func (s *Service) BulkAdd(
	ctx context.Context,
	todoID string,
	tagIDs []string,
) (*model.Todo, error) {
	if _, err := s.store.GetTodoByID(ctx, todoID); err != nil {
		return nil, err
	}

	for _, tagID := range dedupe(tagIDs) {
		exists, err := s.store.TagExists(ctx, tagID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("tag %s: %w", tagID, store.ErrNotFound)
		}
		if err := s.store.AddTodoTag(ctx, todoID, tagID); err != nil {
			return nil, err
		}
	}
	return s.store.GetTodoByID(ctx, todoID)
}

// BulkRemove unlinks each tag in tagIDs from the todo. Ids that are
// not linked (or do not exist) are skipped.
func (s *Service) BulkRemove(
	ctx context.Context,
	todoID string,
	tagIDs []string,
) (*model.Todo, error) {
	if _, err := s.store.GetTodoByID(ctx, todoID); err != nil {
		return nil, err
	}

	for _, tagID := range dedupe(tagIDs) {
		if err := s.store.RemoveTodoTag(ctx, todoID, tagID); err != nil {
			return nil, err
		}
	}
	return s.store.GetTodoByID(ctx, todoID)
}

// dedupe collapses duplicate ids, preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
