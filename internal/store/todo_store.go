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

// CreateTodo inserts a new todo. Generates a UUID if ID is empty and
// defaults priority to normal when unset.
func (s *SQLiteStore) CreateTodo(
	ctx context.Context,
	todo model.Todo,
) (*model.Todo, error) {
	if strings.TrimSpace(todo.Title) == "" {
		return nil, fmt.Errorf("todo title must not be empty: %w", ErrValidation)
	}
	if todo.Priority == "" {
		todo.Priority = model.PriorityNormal
	}
	if !model.ValidPriority(todo.Priority) {
		return nil, fmt.Errorf("unknown priority %q: %w", todo.Priority, ErrValidation)
	}
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, title, completed, priority, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID, todo.Title, boolToInt(todo.Completed), todo.Priority,
		todo.Position, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	todo.Tags = []model.Tag{}
	return &todo, nil
}

// UpdateTodo applies a partial update to a todo. Nil patch fields keep
// their current value. Returns the updated todo with tags resolved.
func (s *SQLiteStore) UpdateTodo(
	ctx context.Context,
	id string,
	patch TodoPatch,
) (*model.Todo, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("todo title must not be empty: %w", ErrValidation)
		}
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*patch.Completed))
	}
	if patch.Priority != nil {
		if !model.ValidPriority(*patch.Priority) {
			return nil, fmt.Errorf("unknown priority %q: %w", *patch.Priority, ErrValidation)
		}
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Position != nil {
		sets = append(sets, "position = ?")
		args = append(args, *patch.Position)
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		"UPDATE todos SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}

	return s.GetTodoByID(ctx, id)
}

// DeleteTodo removes a todo by ID. Link rows cascade via todo_tags.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTodoByID retrieves a single todo by ID, including its tags.
func (s *SQLiteStore) GetTodoByID(
	ctx context.Context,
	id string,
) (*model.Todo, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT id, title, completed, priority, position, created_at, updated_at FROM todos WHERE id = ?",
		id)

	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting todo %s: %w", id, err)
	}

	tags, err := s.GetTagsForTodo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading tags for todo %s: %w", id, err)
	}
	todo.Tags = tags

	return &todo, nil
}

// GetTodos retrieves todos matching the filter, each with its tags resolved.
func (s *SQLiteStore) GetTodos(
	ctx context.Context,
	filter TodoFilter,
) ([]model.Todo, error) {
	query, args := buildTodoQuery(
		"SELECT todos.id, todos.title, todos.completed, todos.priority, todos.position, todos.created_at, todos.updated_at",
		filter)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range todos {
		tags, err := s.GetTagsForTodo(ctx, todos[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading tags for todo %s: %w", todos[i].ID, err)
		}
		todos[i].Tags = tags
	}

	return todos, nil
}

// CountTodos returns the count of todos matching the filter.
func (s *SQLiteStore) CountTodos(
	ctx context.Context,
	filter TodoFilter,
) (int, error) {
	filter.Limit = 0
	filter.Offset = 0
	query, args := buildTodoQuery("SELECT COUNT(DISTINCT todos.id)", filter)

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting todos: %w", err)
	}
	return count, nil
}

// ApplyPositions updates positions for a batch of todos inside one
// transaction. Unknown ids are skipped; the returned count is the
// number of rows actually updated.
func (s *SQLiteStore) ApplyPositions(
	ctx context.Context,
	updates []PositionUpdate,
) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	applied := 0
	for _, u := range updates {
		result, err := tx.ExecContext(ctx,
			"UPDATE todos SET position = ?, updated_at = ? WHERE id = ?",
			u.Position, now, u.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("repositioning todo %s: %w", u.ID, err)
		}
		rows, _ := result.RowsAffected()
		if rows > 0 {
			applied++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing reorder: %w", err)
	}
	return applied, nil
}

// buildTodoQuery constructs the SQL query and args for a TodoFilter.
func buildTodoQuery(selectClause string, filter TodoFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	from := " FROM todos"
	if filter.TagID != nil {
		from += " INNER JOIN todo_tags ON todos.id = todo_tags.todo_id"
		conditions = append(conditions, "todo_tags.tag_id = ?")
		args = append(args, *filter.TagID)
	}

	if filter.Completed != nil {
		conditions = append(conditions, "todos.completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "todos.title LIKE ?")
		args = append(args, "%"+*filter.Query+"%")
	}

	query := selectClause + from
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Sort. Priority uses a fixed rank so high > normal > low regardless
	// of lexical order; rowid keeps ties stable in insertion order.
	sortBy := "todos.position"
	switch filter.SortBy {
	case "priority":
		sortBy = "CASE todos.priority WHEN 'high' THEN 3 WHEN 'normal' THEN 2 ELSE 1 END"
	case "created_at":
		sortBy = "todos.created_at"
	case "position", "":
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, todos.rowid ASC", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

// scanTodo scans a todo row from sqlx.Rows or sqlx.Row.
func scanTodo(row interface{ Scan(dest ...interface{}) error }) (model.Todo, error) {
	var (
		todo         model.Todo
		completedInt int
	)

	err := row.Scan(
		&todo.ID, &todo.Title, &completedInt, &todo.Priority,
		&todo.Position, &todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, err
		}
		return model.Todo{}, fmt.Errorf("scanning todo row: %w", err)
	}

	todo.Completed = completedInt != 0
	return todo, nil
}
