package store

import (
	"context"

	"taskboard/internal/model"
)

// TodoFilter controls filtering, sorting, and pagination for todo queries.
type TodoFilter struct {
	Completed *bool   // completion flag, or nil (all)
	TagID     *string // only todos linked to this tag
	Query     *string // case-insensitive substring match on title
	SortBy    string  // "position", "priority", "created_at"
	SortDesc  bool
	Limit     int
	Offset    int
}

// TodoPatch is a partial update for a todo. Nil fields keep their
// current value.
type TodoPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Priority  *string `json:"priority,omitempty"`
	Position  *int    `json:"position,omitempty"`
}

// TagPatch is a partial update for a tag. Nil fields keep their
// current value.
type TagPatch struct {
	Name       *string `json:"name,omitempty"`
	Color      *string `json:"color,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
}

// PositionUpdate assigns a new position to a single todo.
type PositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// Store defines the persistence interface for todos, tags, categories,
// and the todo-tag association.
type Store interface {
	// === Todo CRUD ===

	CreateTodo(ctx context.Context, todo model.Todo) (*model.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch TodoPatch) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	GetTodoByID(ctx context.Context, id string) (*model.Todo, error)
	GetTodos(ctx context.Context, filter TodoFilter) ([]model.Todo, error)
	CountTodos(ctx context.Context, filter TodoFilter) (int, error)
	ApplyPositions(ctx context.Context, updates []PositionUpdate) (int, error)

	// === Tag CRUD ===

	CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error)
	UpdateTag(ctx context.Context, id string, patch TagPatch) (*model.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	GetTags(ctx context.Context) ([]model.Tag, error)
	GetTagByID(ctx context.Context, id string) (*model.Tag, error)
	TagExists(ctx context.Context, id string) (bool, error)
	GetTagsForTodo(ctx context.Context, todoID string) ([]model.Tag, error)

	// === Category CRUD ===

	CreateCategory(ctx context.Context, category model.Category) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	CategoryExists(ctx context.Context, id string) (bool, error)

	// === Todo-tag links ===

	AddTodoTag(ctx context.Context, todoID, tagID string) error
	RemoveTodoTag(ctx context.Context, todoID, tagID string) error
	TodoHasTag(ctx context.Context, todoID, tagID string) (bool, error)
}
