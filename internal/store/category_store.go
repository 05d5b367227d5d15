package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
)

// CreateCategory inserts a new category. A duplicate name is a conflict.
func (s *SQLiteStore) CreateCategory(
	ctx context.Context,
	category model.Category,
) (*model.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, fmt.Errorf("category name must not be empty: %w", ErrValidation)
	}
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)",
		category.ID, category.Name, category.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("category name %q already exists: %w", category.Name, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return &category, nil
}

// GetCategories retrieves all categories ordered by name.
func (s *SQLiteStore) GetCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CategoryExists reports whether a category with the given ID exists.
func (s *SQLiteStore) CategoryExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM categories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("checking category %s: %w", id, err)
	}
	return count > 0, nil
}
