package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/query"
	"taskboard/internal/store"
)

type createTodoRequest struct {
	Title    string   `json:"title"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

type tagLinkRequest struct {
	TagID  string   `json:"tagId"`
	TagIDs []string `json:"tagIds"`
}

type reorderRequest struct {
	Order []store.PositionUpdate `json:"order"`
}

type removeTagsResponse struct {
	Success bool        `json:"success"`
	Tags    []model.Tag `json:"tags"`
}

type messageResponse struct {
	Message string `json:"message"`
	Updated int    `json:"updated,omitempty"`
}

// parsePageParams reads page and limit query parameters, applying the
// defaults when absent. Non-integer values are a validation error;
// positivity is checked by the query service.
func parsePageParams(r *http.Request) (int, int, error) {
	page := query.DefaultPage
	pageSize := query.DefaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("page must be an integer: %w", store.ErrValidation)
		}
		page = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("limit must be an integer: %w", store.ErrValidation)
		}
		pageSize = n
	}
	return page, pageSize, nil
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePageParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.query.ListPaged(r.Context(), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearchTodos(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePageParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	todos, err := s.query.Search(r.Context(), r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todos)
}

func (s *Server) handleFilterTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.query.FilterByStatus(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todos)
}

func (s *Server) handleTodosByTag(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePageParams(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.query.FilterByTag(r.Context(), chi.URLParam(r, "tagId"), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if result.TotalTasks == 0 {
		s.respondJSON(w, http.StatusNotFound, errorResponse{Message: "no todos found for this tag"})
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTodosByPriority(w http.ResponseWriter, r *http.Request) {
	todos, err := s.query.SortByPriority(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todos)
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := s.store.GetTodoByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todo)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	// Every referenced tag must exist before the todo is written.
	for _, tagID := range req.Tags {
		if _, err := uuid.Parse(tagID); err != nil {
			s.respondValidation(w, fmt.Sprintf("malformed tag id %q", tagID))
			return
		}
		exists, err := s.store.TagExists(r.Context(), tagID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if !exists {
			s.respondValidation(w, fmt.Sprintf("tag %s does not exist", tagID))
			return
		}
	}

	todo, err := s.store.CreateTodo(r.Context(), model.Todo{
		Title:    req.Title,
		Priority: req.Priority,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if len(req.Tags) > 0 {
		todo, err = s.relation.BulkAdd(r.Context(), todo.ID, req.Tags)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	s.respondJSON(w, http.StatusCreated, todo)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	var patch store.TodoPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}

	todo, err := s.store.UpdateTodo(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todo)
}

func (s *Server) handleUpdateTodoPriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Priority == "" {
		s.respondValidation(w, "priority not provided")
		return
	}

	todo, err := s.store.UpdateTodo(r.Context(), chi.URLParam(r, "id"),
		store.TodoPatch{Priority: &req.Priority})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTodo(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "todo deleted"})
}

func (s *Server) handleAddTodoTags(w http.ResponseWriter, r *http.Request) {
	todoID := chi.URLParam(r, "id")

	req, err := parseTagLinkRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var todo *model.Todo
	if req.TagID != "" {
		todo, err = s.relation.AddTag(r.Context(), todoID, req.TagID)
	} else {
		todo, err = s.relation.BulkAdd(r.Context(), todoID, req.TagIDs)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todo)
}

func (s *Server) handleRemoveTodoTags(w http.ResponseWriter, r *http.Request) {
	todoID := chi.URLParam(r, "id")

	req, err := parseTagLinkRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var todo *model.Todo
	if req.TagID != "" {
		todo, err = s.relation.RemoveTag(r.Context(), todoID, req.TagID)
	} else {
		todo, err = s.relation.BulkRemove(r.Context(), todoID, req.TagIDs)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, removeTagsResponse{Success: true, Tags: todo.Tags})
}

func (s *Server) handleReorderTodos(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.query.Reorder(r.Context(), req.Order)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "reorder applied", Updated: updated})
}

// parseTagLinkRequest decodes a link mutation body and checks that it
// names at least one well-formed tag id.
func parseTagLinkRequest(r *http.Request) (tagLinkRequest, error) {
	var req tagLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	if req.TagID == "" && len(req.TagIDs) == 0 {
		return req, fmt.Errorf("tagId not provided: %w", store.ErrValidation)
	}

	ids := req.TagIDs
	if req.TagID != "" {
		ids = append([]string{req.TagID}, ids...)
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return req, fmt.Errorf("malformed tag id %q: %w", id, store.ErrValidation)
		}
	}
	return req, nil
}
