// Data Transfer Objects for the expenses module.
package expenses

import "encoding/json"

// ExpenseRequest is the payload for creating or updating an expense.
// Amount is kept raw so both JSON numbers and numeric strings are accepted,
// with anything else rejected as non-numeric.
type ExpenseRequest struct {
	Amount   json.RawMessage `json:"amount" swaggertype:"number" example:"12.5"`
	Category string          `json:"category" example:"food"`
	Date     string          `json:"date" example:"2024-03-05"`
	Notes    *string         `json:"notes,omitempty" example:"lunch with team"`
}

// ExpenseResponse wraps a mutated expense with a human-readable message.
type ExpenseResponse struct {
	Message string   `json:"message" example:"Expense created successfully"`
	Expense *Expense `json:"expense"`
}

// MessageResponse carries a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message" example:"Expense deleted successfully"`
}
