package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/model"
	"taskboard/internal/server"
	"taskboard/internal/store"
	"taskboard/tests/testutil"
)

func newTestServer(t *testing.T) (*server.Server, *store.SQLiteStore) {
	t.Helper()
	s := testutil.NewTestStore(t)
	logger := log.New(io.Discard)
	return server.New(s, logger), s
}

// doJSON performs a request against the server and decodes the JSON
// response body into out (when out is non-nil).
func doJSON(t *testing.T, srv *server.Server, method, path string, body, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestCreateAndGetTodo(t *testing.T) {
	srv, _ := newTestServer(t)

	var created model.Todo
	rec := doJSON(t, srv, http.MethodPost, "/api/todos",
		map[string]interface{}{"title": "Fix login bug", "priority": "high"}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Fix login bug", created.Title)
	assert.Equal(t, model.PriorityHigh, created.Priority)
	assert.False(t, created.Completed)
	assert.Empty(t, created.Tags)

	var fetched model.Todo
	rec = doJSON(t, srv, http.MethodGet, "/api/todos/"+created.ID, nil, &fetched)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, fetched.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/todos/nonexistent", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTodoValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/todos",
		map[string]interface{}{"title": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/todos",
		map[string]interface{}{"title": "ok", "priority": "urgent"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Tags must exist at creation time.
	rec = doJSON(t, srv, http.MethodPost, "/api/todos",
		map[string]interface{}{"title": "ok", "tags": []string{"not-a-uuid"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTodoWithTags(t *testing.T) {
	srv, s := newTestServer(t)

	tag, err := s.CreateTag(context.Background(), model.Tag{Name: "Bug"})
	require.NoError(t, err)

	var created model.Todo
	rec := doJSON(t, srv, http.MethodPost, "/api/todos",
		map[string]interface{}{"title": "tagged", "tags": []string{tag.ID}}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "Bug", created.Tags[0].Name)
}

func TestListTodosPaged(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.CreateTodo(ctx, model.Todo{Title: fmt.Sprintf("todo %d", i)})
		require.NoError(t, err)
	}

	var page struct {
		Todos       []model.Todo `json:"todos"`
		TotalPages  int          `json:"totalPages"`
		CurrentPage int          `json:"currentPage"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/todos?page=2&limit=2", nil, &page)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, page.Todos, 1)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)

	rec = doJSON(t, srv, http.MethodGet, "/api/todos?page=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/todos?page=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAndFilterRoutes(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	_, err := s.CreateTodo(ctx, model.Todo{Title: "alpha"})
	require.NoError(t, err)
	done, err := s.CreateTodo(ctx, model.Todo{Title: "beta"})
	require.NoError(t, err)
	completed := true
	_, err = s.UpdateTodo(ctx, done.ID, store.TodoPatch{Completed: &completed})
	require.NoError(t, err)

	var todos []model.Todo
	rec := doJSON(t, srv, http.MethodGet, "/api/todos/search?search=alp", nil, &todos)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, todos, 1)
	assert.Equal(t, "alpha", todos[0].Title)

	rec = doJSON(t, srv, http.MethodGet, "/api/todos/filter?status=completed", nil, &todos)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, todos, 1)
	assert.Equal(t, "beta", todos[0].Title)

	// Unrecognized status returns everything.
	rec = doJSON(t, srv, http.MethodGet, "/api/todos/filter?status=whatever", nil, &todos)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, todos, 2)
}

func TestTodosByTagRoute(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	rec := doJSON(t, srv, http.MethodGet, "/api/todos/by-tag/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tag, err := s.CreateTag(ctx, model.Tag{Name: "Bug"})
	require.NoError(t, err)

	rec = doJSON(t, srv, http.MethodGet, "/api/todos/by-tag/"+tag.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	todo, err := s.CreateTodo(ctx, model.Todo{Title: "tagged"})
	require.NoError(t, err)
	require.NoError(t, s.AddTodoTag(ctx, todo.ID, tag.ID))

	var page struct {
		Todos       []model.Todo `json:"todos"`
		TotalTasks  int          `json:"totalTasks"`
		TotalPages  int          `json:"totalPages"`
		CurrentPage int          `json:"currentPage"`
		PerPage     int          `json:"perPage"`
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/todos/by-tag/"+tag.ID, nil, &page)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, page.TotalTasks)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 10, page.PerPage)
	require.Len(t, page.Todos, 1)
	require.Len(t, page.Todos[0].Tags, 1)
	assert.Equal(t, "Bug", page.Todos[0].Tags[0].Name)
}

func TestTodosByPriorityRoute(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	_, err := s.CreateTodo(ctx, model.Todo{Title: "Write docs", Priority: model.PriorityLow})
	require.NoError(t, err)
	_, err = s.CreateTodo(ctx, model.Todo{Title: "Fix login bug", Priority: model.PriorityHigh})
	require.NoError(t, err)

	var todos []model.Todo
	rec := doJSON(t, srv, http.MethodGet, "/api/todos/by-priority", nil, &todos)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, todos, 2)
	assert.Equal(t, "Fix login bug", todos[0].Title)
	assert.Equal(t, "Write docs", todos[1].Title)
}

func TestUpdateTodoRoutes(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	todo, err := s.CreateTodo(ctx, model.Todo{Title: "before"})
	require.NoError(t, err)

	var updated model.Todo
	rec := doJSON(t, srv, http.MethodPatch, "/api/todos/"+todo.ID,
		map[string]interface{}{"title": "after", "completed": true}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "after", updated.Title)
	assert.True(t, updated.Completed)

	rec = doJSON(t, srv, http.MethodPatch, "/api/todos/"+todo.ID+"/priority",
		map[string]interface{}{"priority": "high"}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PriorityHigh, updated.Priority)

	rec = doJSON(t, srv, http.MethodPatch, "/api/todos/"+todo.ID+"/priority",
		map[string]interface{}{"priority": "urgent"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPatch, "/api/todos/missing/priority",
		map[string]interface{}{"priority": "low"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTodoRoute(t *testing.T) {
	srv, s := newTestServer(t)

	todo, err := s.CreateTodo(context.Background(), model.Todo{Title: "gone"})
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodDelete, "/api/todos/"+todo.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/todos/"+todo.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTodoTagLinkRoutes(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	todo, err := s.CreateTodo(ctx, model.Todo{Title: "linkable"})
	require.NoError(t, err)
	tag, err := s.CreateTag(ctx, model.Tag{Name: "Bug"})
	require.NoError(t, err)

	// Missing tagId.
	rec := doJSON(t, srv, http.MethodPost, "/api/todos/"+todo.ID+"/tags",
		map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed tagId.
	rec = doJSON(t, srv, http.MethodPost, "/api/todos/"+todo.ID+"/tags",
		map[string]interface{}{"tagId": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown tag.
	rec = doJSON(t, srv, http.MethodPost, "/api/todos/"+todo.ID+"/tags",
		map[string]interface{}{"tagId": "00000000-0000-0000-0000-000000000000"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var updated model.Todo
	rec = doJSON(t, srv, http.MethodPost, "/api/todos/"+todo.ID+"/tags",
		map[string]interface{}{"tagId": tag.ID}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "Bug", updated.Tags[0].Name)

	var removed struct {
		Success bool        `json:"success"`
		Tags    []model.Tag `json:"tags"`
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/todos/"+todo.ID+"/tags",
		map[string]interface{}{"tagId": tag.ID}, &removed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, removed.Success)
	assert.Empty(t, removed.Tags)
}

func TestReorderRoute(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	a, err := s.CreateTodo(ctx, model.Todo{Title: "A"})
	require.NoError(t, err)
	b, err := s.CreateTodo(ctx, model.Todo{Title: "B"})
	require.NoError(t, err)

	var resp struct {
		Message string `json:"message"`
		Updated int    `json:"updated"`
	}
	rec := doJSON(t, srv, http.MethodPut, "/api/todos/reorder",
		map[string]interface{}{"order": []map[string]interface{}{
			{"id": a.ID, "position": 2},
			{"id": b.ID, "position": 1},
		}}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, resp.Updated)

	var page struct {
		Todos []model.Todo `json:"todos"`
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/todos", nil, &page)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, page.Todos, 2)
	assert.Equal(t, "B", page.Todos[0].Title)
	assert.Equal(t, "A", page.Todos[1].Title)
}

func TestTagRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	var tag model.Tag
	rec := doJSON(t, srv, http.MethodPost, "/api/tags",
		map[string]interface{}{"name": "Bug"}, &tag)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.DefaultTagColor, tag.Color)

	// Duplicate name conflicts.
	rec = doJSON(t, srv, http.MethodPost, "/api/tags",
		map[string]interface{}{"name": "Bug"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown category is a validation error.
	rec = doJSON(t, srv, http.MethodPost, "/api/tags",
		map[string]interface{}{"name": "Feature", "categoryId": "missing"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var tags []model.Tag
	rec = doJSON(t, srv, http.MethodGet, "/api/tags", nil, &tags)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, tags, 1)

	var updated model.Tag
	rec = doJSON(t, srv, http.MethodPatch, "/api/tags/"+tag.ID,
		map[string]interface{}{"color": "#00ff00"}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#00ff00", updated.Color)

	rec = doJSON(t, srv, http.MethodPatch, "/api/tags/missing",
		map[string]interface{}{"color": "#fff"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/tags/"+tag.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodDelete, "/api/tags/"+tag.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	var cat model.Category
	rec := doJSON(t, srv, http.MethodPost, "/api/categories",
		map[string]interface{}{"name": "Work"}, &cat)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, cat.ID)

	rec = doJSON(t, srv, http.MethodPost, "/api/categories",
		map[string]interface{}{"name": "Work"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var categories []model.Category
	rec = doJSON(t, srv, http.MethodGet, "/api/categories", nil, &categories)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, categories, 1)
}

func TestListenFallback(t *testing.T) {
	srv, _ := newTestServer(t)

	primary, err := srv.Listen(0, 0)
	require.NoError(t, err)
	defer primary.Close()

	// Occupy a fixed port, then ask the server for it: it must fall
	// back to the alternate.
	occupied, err := srv.Listen(0, 0)
	require.NoError(t, err)
	defer occupied.Close()

	port := occupied.Addr().(*net.TCPAddr).Port
	fallback, err := srv.Listen(port, 0)
	require.NoError(t, err)
	defer fallback.Close()
	assert.NotEqual(t, port, fallback.Addr().(*net.TCPAddr).Port)
}
