package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createTableRequest struct {
	TableName string `json:"tableName"`
	Columns   string `json:"columns"`
}

type addColumnRequest struct {
	ColumnName string `json:"columnName"`
	ColumnType string `json:"columnType"`
}

// CreateTable creates a table from {tableName, columns}
func (h *Handlers) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := decodeInto(r, &req); err != nil {
		h.jsonError(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}
	if req.TableName == "" || req.Columns == "" {
		h.jsonError(w, "tableName and columns are required", http.StatusBadRequest)
		return
	}

	if err := h.store.CreateTable(req.TableName, req.Columns); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, map[string]any{
		"message": "table created",
		"table":   req.TableName,
	})
}

// AddColumn appends a column to a table from {columnName, columnType}
func (h *Handlers) AddColumn(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var req addColumnRequest
	if err := decodeInto(r, &req); err != nil {
		h.jsonError(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}
	if req.ColumnName == "" || req.ColumnType == "" {
		h.jsonError(w, "columnName and columnType are required", http.StatusBadRequest)
		return
	}

	if err := h.store.AddColumn(table, req.ColumnName, req.ColumnType); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, map[string]any{
		"message": "column added",
		"table":   table,
		"column":  req.ColumnName,
	})
}

// ListColumns describes a table's columns
func (h *Handlers) ListColumns(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	columns, err := h.store.Columns(table)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{
		"table":   table,
		"columns": columns,
	})
}

// DropTable removes a table
func (h *Handlers) DropTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	if err := h.store.DropTable(table); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{
		"message": "table dropped",
		"table":   table,
	})
}

// Healthz reports liveness by pinging the database
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Manager().Ping(); err != nil {
		h.storeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"message": "ok"})
}
