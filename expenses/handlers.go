package expenses

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/user/expense-tracker-go/apperror"
	"github.com/user/expense-tracker-go/auth"
)

// Handlers provides HTTP handlers for expense CRUD operations. Handlers read
// the caller's identity from the request context set by the JWT middleware
// and delegate ownership enforcement to the Store.
type Handlers struct {
	store Store
}

// NewHandlers creates new expense Handlers.
func NewHandlers(store Store) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers expense routes on the given (already gated) router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreate())
	r.Get("/", h.HandleList())
	r.Get("/month/{year}/{month}", h.HandleListByMonth())
	r.Get("/{id}", h.HandleGetByID())
	r.Put("/{id}", h.HandleUpdate())
	r.Delete("/{id}", h.HandleDelete())
}

// HandleCreate godoc
// @Summary Create an expense
// @Description Creates a new expense owned by the authenticated user.
// @Tags Expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param expenseBody body expenses.ExpenseRequest true "Expense details"
// @Success 201 {object} expenses.ExpenseResponse "Expense created"
// @Failure 400 {object} apperror.ErrorResponse "Missing fields or non-numeric amount"
// @Failure 401 {object} apperror.ErrorResponse "Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/expenses [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("No authenticated user in context", nil))
			return
		}

		amount, category, date, notes, appErr := decodeExpenseRequest(r)
		if appErr != nil {
			auth.WriteError(w, r, appErr)
			return
		}

		expense, err := h.store.Create(r.Context(), identity.UserID, amount, category, date, notes)
		if err != nil {
			log.Printf("Create expense error: %v", err)
			auth.WriteError(w, r, apperror.NewDatabaseError("Failed to create expense", err))
			return
		}

		writeJSON(w, http.StatusCreated, ExpenseResponse{
			Message: "Expense created successfully",
			Expense: expense,
		})
	}
}

// HandleList godoc
// @Summary List expenses
// @Description Returns all expenses of the authenticated user, newest date first.
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} expenses.Expense
// @Failure 401 {object} apperror.ErrorResponse "Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/expenses [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("No authenticated user in context", nil))
			return
		}

		expenses, err := h.store.FindAll(r.Context(), identity.UserID)
		if err != nil {
			log.Printf("List expenses error: %v", err)
			auth.WriteError(w, r, apperror.NewDatabaseError("Failed to get expenses", err))
			return
		}

		writeJSON(w, http.StatusOK, expenses)
	}
}

// HandleGetByID godoc
// @Summary Get an expense by id
// @Description Returns a single expense. An expense owned by another user is indistinguishable from a missing one.
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} expenses.Expense
// @Failure 401 {object} apperror.ErrorResponse "Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not found or not owned"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/expenses/{id} [get]
func (h *Handlers) HandleGetByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("No authenticated user in context", nil))
			return
		}

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			// A non-numeric id cannot match any row.
			auth.WriteError(w, r, apperror.NewNotFoundError("Expense not found", nil))
			return
		}

		expense, err := h.store.FindByID(r.Context(), id, identity.UserID)
		if err != nil {
			log.Printf("Get expense error: %v", err)
			auth.WriteError(w, r, apperror.NewDatabaseError("Failed to get expense", err))
			return
		}
		if expense == nil {
			auth.WriteError(w, r, apperror.NewNotFoundError("Expense not found", nil))
			return
		}

		writeJSON(w, http.StatusOK, expense)
	}
}

// HandleListByMonth godoc
// @Summary List expenses for a calendar month
// @Description Returns the authenticated user's expenses for the given month, in ascending date order.
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year, e.g. 2024"
// @Param month path int true "Month 1-12"
// @Success 200 {array} expenses.Expense
// @Failure 400 {object} apperror.ErrorResponse "Invalid year or month"
// @Failure 401 {object} apperror.ErrorResponse "Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/expenses/month/{year}/{month} [get]
func (h *Handlers) HandleListByMonth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("No authenticated user in context", nil))
			return
		}

		year, errYear := strconv.Atoi(chi.URLParam(r, "year"))
		month, errMonth := strconv.Atoi(chi.URLParam(r, "month"))
		if errYear != nil || errMonth != nil || month < 1 || month > 12 {
			auth.WriteError(w, r, apperror.NewValidationError("Valid year and month are required", nil))
			return
		}

		expenses, err := h.store.FindByMonth(r.Context(), identity.UserID, year, time.Month(month))
		if err != nil {
			log.Printf("List expenses by month error: %v", err)
			auth.WriteError(w, r, apperror.NewDatabaseError("Failed to get expenses by month", err))
			return
		}

		writeJSON(w, http.StatusOK, expenses)
	}
}

// HandleUpdate godoc
// @Summary Update an expense
// @Description Rewrites amount, category, date, and notes of an owned expense.
// @Tags Expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param expenseBody body expenses.ExpenseRequest true "Expense details"
// @Success 200 {object} expenses.ExpenseResponse "Expense updated"
// @Failure 400 {object} apperror.ErrorResponse "Missing fields or non-numeric amount"
// @Failure 401 {object} apperror.ErrorResponse "Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not found or not owned"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/expenses/{id} [put]
func (h *Handlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("No authenticated user in context", nil))
			return
		}

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewNotFoundError("Expense not found or not authorized", nil))
			return
		}

		amount, category, date, notes, appErr := decodeExpenseRequest(r)
		if appErr != nil {
			auth.WriteError(w, r, appErr)
			return
		}

		expense, err := h.store.Update(r.Context(), id, identity.UserID, amount, category, date, notes)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				auth.WriteError(w, r, apperror.NewNotFoundError("Expense not found or not authorized", nil))
				return
			}
			log.Printf("Update expense error: %v", err)
			auth.WriteError(w, r, apperror.NewDatabaseError("Failed to update expense", err))
			return
		}

		writeJSON(w, http.StatusOK, ExpenseResponse{
			Message: "Expense updated successfully",
			Expense: expense,
		})
	}
}

// HandleDelete godoc
// @Summary Delete an expense
// @Description Deletes an owned expense.
// @Tags Expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} expenses.MessageResponse "Expense deleted"
// @Failure 401 {object} apperror.ErrorResponse "Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not found or not owned"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/expenses/{id} [delete]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("No authenticated user in context", nil))
			return
		}

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewNotFoundError("Expense not found or not authorized", nil))
			return
		}

		if err := h.store.Delete(r.Context(), id, identity.UserID); err != nil {
			if errors.Is(err, ErrNotFound) {
				auth.WriteError(w, r, apperror.NewNotFoundError("Expense not found or not authorized", nil))
				return
			}
			log.Printf("Delete expense error: %v", err)
			auth.WriteError(w, r, apperror.NewDatabaseError("Failed to delete expense", err))
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
	}
}

// decodeExpenseRequest parses and validates the shared create/update payload.
// The returned error is nil on success.
func decodeExpenseRequest(r *http.Request) (float64, string, time.Time, *string, *apperror.AppError) {
	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, "", time.Time{}, nil, apperror.NewBadRequestError("Invalid request body", err)
	}
	defer r.Body.Close()

	// A JSON null amount counts as missing, same as an absent field.
	if len(req.Amount) == 0 || string(req.Amount) == "null" || req.Category == "" || req.Date == "" {
		return 0, "", time.Time{}, nil, apperror.NewValidationError("Amount, category, and date are required", nil)
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return 0, "", time.Time{}, nil, apperror.NewValidationError("Amount must be a number", nil)
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return 0, "", time.Time{}, nil, apperror.NewValidationError("Date must be in YYYY-MM-DD format", nil)
	}

	return amount, req.Category, date, req.Notes, nil
}

// parseAmount accepts the amount as a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (float64, error) {
	var amount float64
	if err := json.Unmarshal(raw, &amount); err == nil {
		return amount, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

// writeJSON serializes data to JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}
