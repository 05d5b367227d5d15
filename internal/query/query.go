// Package query implements read-only composite queries over the todo
// store: search, status and tag filters, priority sort, pagination,
// and batch reordering.
package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Pagination defaults applied when the caller omits the parameters.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Page is one slice of the full todo list.
type Page struct {
	Todos       []model.Todo `json:"todos"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

// TagPage is one slice of the todos linked to a single tag.
type TagPage struct {
	Todos       []model.Todo `json:"todos"`
	TotalTasks  int          `json:"totalTasks"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	PerPage     int          `json:"perPage"`
}

// Service answers composite queries against an injected store. All
// results carry resolved tag records, never raw tag ids.
type Service struct {
	store store.Store
}

// NewService returns a query service backed by s.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Search returns todos whose title contains term (case-insensitive),
// sliced to the requested page. An empty term matches all todos.
func (s *Service) Search(
	ctx context.Context,
	term string,
	page, pageSize int,
) ([]model.Todo, error) {
	if err := validatePaging(page, pageSize); err != nil {
		return nil, err
	}

	filter := store.TodoFilter{
		SortBy: "created_at",
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if term != "" {
		filter.Query = &term
	}
	return s.store.GetTodos(ctx, filter)
}

// FilterByStatus returns todos matching the given status. "completed"
// and "pending" map to the completion flag; any other value returns
// all todos. The permissive fallback mirrors the upstream API contract
// and is deliberate.
func (s *Service) FilterByStatus(
	ctx context.Context,
	status string,
) ([]model.Todo, error) {
	filter := store.TodoFilter{SortBy: "position"}
	switch status {
	case "completed":
		completed := true
		filter.Completed = &completed
	case "pending":
		completed := false
		filter.Completed = &completed
	}
	return s.store.GetTodos(ctx, filter)
}

// FilterByTag returns the todos linked to tagID, paginated, together
// with the total match and page counts. A malformed tag id fails
// before any storage access. Zero matches yields an empty page, not
// an error.
func (s *Service) FilterByTag(
	ctx context.Context,
	tagID string,
	page, pageSize int,
) (*TagPage, error) {
	if _, err := uuid.Parse(tagID); err != nil {
		return nil, fmt.Errorf("malformed tag id %q: %w", tagID, store.ErrValidation)
	}
	if err := validatePaging(page, pageSize); err != nil {
		return nil, err
	}

	filter := store.TodoFilter{
		TagID:  &tagID,
		SortBy: "position",
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	total, err := s.store.CountTodos(ctx, filter)
	if err != nil {
		return nil, err
	}
	todos, err := s.store.GetTodos(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &TagPage{
		Todos:       todos,
		TotalTasks:  total,
		TotalPages:  ceilDiv(total, pageSize),
		CurrentPage: page,
		PerPage:     pageSize,
	}, nil
}

// SortByPriority returns all todos ordered high > normal > low, ties
// kept in insertion order.
func (s *Service) SortByPriority(ctx context.Context) ([]model.Todo, error) {
	return s.store.GetTodos(ctx, store.TodoFilter{
		SortBy:   "priority",
		SortDesc: true,
	})
}

// ListPaged returns one page of all todos ordered by position, plus
// the total page count.
func (s *Service) ListPaged(
	ctx context.Context,
	page, pageSize int,
) (*Page, error) {
	if err := validatePaging(page, pageSize); err != nil {
		return nil, err
	}

	total, err := s.store.CountTodos(ctx, store.TodoFilter{})
	if err != nil {
		return nil, err
	}
	todos, err := s.store.GetTodos(ctx, store.TodoFilter{
		SortBy: "position",
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	return &Page{
		Todos:       todos,
		TotalPages:  ceilDiv(total, pageSize),
		CurrentPage: page,
	}, nil
}

// Reorder applies a batch of position updates best-effort: unknown ids
// are skipped, the rest are committed together. Returns the number of
// todos actually moved.
func (s *Service) Reorder(
	ctx context.Context,
	updates []store.PositionUpdate,
) (int, error) {
	return s.store.ApplyPositions(ctx, updates)
}

func validatePaging(page, pageSize int) error {
	if page < 1 {
		return fmt.Errorf("page must be positive, got %d: %w", page, store.ErrValidation)
	}
	if pageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d: %w", pageSize, store.ErrValidation)
	}
	return nil
}

func ceilDiv(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
