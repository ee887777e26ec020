package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListTables returns the names of all user tables
func (h *Handlers) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.Tables()
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"tables": tables})
}

// ListRows returns the first rows of a table
func (h *Handlers) ListRows(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	rows, err := h.store.List(table)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"rows": rows})
}

// GetRow returns a single row by id
func (h *Handlers) GetRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id := chi.URLParam(r, "id")

	row, err := h.store.Get(table, id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"row": row})
}

// PaginateRows returns one page of a table. Both page and limit are
// required and must be positive integers.
func (h *Handlers) PaginateRows(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		h.jsonError(w, "page must be a positive integer", http.StatusBadRequest)
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		h.jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	rows, err := h.store.Page(table, page, limit)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if len(rows) == 0 {
		h.respond(w, http.StatusOK, map[string]any{
			"message": "table is empty",
			"rows":    rows,
			"page":    page,
		})
		return
	}
	h.respond(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"page":  page,
		"limit": limit,
	})
}

// CreateRow inserts a row from the JSON object body
func (h *Handlers) CreateRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	body, err := decodeBody(r)
	if err != nil {
		h.jsonError(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}

	id, err := h.store.Insert(table, body)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, map[string]any{
		"message": "row created",
		"id":      id,
	})
}

// UpdateRow applies the JSON object body to the row with the given id
func (h *Handlers) UpdateRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id := chi.URLParam(r, "id")

	body, err := decodeBody(r)
	if err != nil {
		h.jsonError(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}

	affected, err := h.store.Update(table, id, body)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{
		"message":       "row updated",
		"rows_affected": affected,
	})
}

// DeleteRow removes the row with the given id
func (h *Handlers) DeleteRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(table, id); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"message": "row deleted"})
}
