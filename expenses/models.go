// Package expenses implements the expense record feature: storage, DTOs, and
// HTTP handlers. Every operation is scoped to the owning user; ownership is
// enforced at the store layer, not in the handlers.
package expenses

import "time"

// Expense represents a financial entry owned by exactly one user.
// Date crosses the API as a "YYYY-MM-DD" string.
type Expense struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
