package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"millennium-sync/pkg/config"
	"millennium-sync/pkg/database"
	"millennium-sync/pkg/middleware"
	"millennium-sync/pkg/utils"
)

// RowsHandler serves the row endpoints under /rest/v1/{table}. The dialect
// follows the hosted store: filters travel as query parameters ("id=eq.7"),
// ordering as "order=col.desc", and Prefer headers select representation
// and counting behavior. Every request is scoped to the authenticated user;
// a row someone else owns is invisible, not forbidden.
type RowsHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

// NewRowsHandler creates a rows handler
func NewRowsHandler(cfg *config.Config, db database.DatabaseInterface) *RowsHandler {
	return &RowsHandler{
		config: cfg,
		db:     db,
	}
}

// table extracts and validates the table path parameter
func (h *RowsHandler) table(w http.ResponseWriter, r *http.Request) (string, bool) {
	table := chi.URLParam(r, "table")
	if !database.KnownTable(table) {
		utils.WriteNotFoundResponse(w, "relation \""+table+"\" does not exist")
		return "", false
	}
	return table, true
}

// idFilter parses the id=eq.N query filter
func idFilter(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("id")
	if !strings.HasPrefix(raw, "eq.") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "eq."), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// orderClause parses the order=col.direction query parameter
func orderClause(r *http.Request) (orderBy string, descending bool) {
	raw := r.URL.Query().Get("order")
	if raw == "" {
		return "", false
	}
	parts := strings.SplitN(raw, ".", 2)
	orderBy = parts[0]
	if len(parts) == 2 && parts[1] == "desc" {
		descending = true
	}
	return orderBy, descending
}

// List handles GET /rest/v1/{table}, returning the user's rows as a bare
// array
func (h *RowsHandler) List(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	orderBy, descending := orderClause(r)
	rows, err := h.db.ListRows(table, user.ID, orderBy, descending)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteSuccessResponse(w, rows)
}

// Count handles HEAD /rest/v1/{table} with Prefer: count=exact, answering
// with the total in the Content-Range header and no body
func (h *RowsHandler) Count(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	total, err := h.db.CountRows(table, user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteCountHeader(w, total)
	w.WriteHeader(http.StatusOK)
}

// Insert handles POST /rest/v1/{table}. The owner column is forced to the
// authenticated user regardless of what the client sent.
func (h *RowsHandler) Insert(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	var row database.Row
	if err := utils.ParseJSONBody(r, &row); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	row["user_id"] = user.ID

	stored, err := h.db.InsertRow(table, row)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	if wantsRepresentation(r) {
		utils.WriteCreatedResponse(w, []database.Row{stored})
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, nil)
}

// Update handles PATCH /rest/v1/{table}?id=eq.N. A filter that matches no
// owned row answers with an empty array, not an error.
func (h *RowsHandler) Update(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	id, ok := idFilter(r)
	if !ok {
		utils.WriteBadRequestResponse(w, "an id filter is required")
		return
	}

	var patch database.Row
	if err := utils.ParseJSONBody(r, &patch); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	stored, found, err := h.db.UpdateRow(table, id, user.ID, patch)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	if !wantsRepresentation(r) {
		utils.WriteNoContentResponse(w)
		return
	}
	if !found {
		utils.WriteSuccessResponse(w, []database.Row{})
		return
	}
	utils.WriteSuccessResponse(w, []database.Row{stored})
}

// Delete handles DELETE /rest/v1/{table}?id=eq.N. Deleting an absent row
// succeeds; the end state is the same.
func (h *RowsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	id, ok := idFilter(r)
	if !ok {
		utils.WriteBadRequestResponse(w, "an id filter is required")
		return
	}

	if _, err := h.db.DeleteRow(table, id, user.ID); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	utils.WriteNoContentResponse(w)
}

func wantsRepresentation(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Prefer"), "return=representation")
}
