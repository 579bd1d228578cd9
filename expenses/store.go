package expenses

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by Update and Delete when no row matches both the
// expense id and the owner. A row owned by someone else is indistinguishable
// from a missing one.
var ErrNotFound = errors.New("expense not found or not authorized")

// dateLayout is the calendar date format used across the API and the store.
const dateLayout = "2006-01-02"

// Store persists expense records. All read and write operations are filtered
// by the owning user id; FindByID returns (nil, nil) when the id does not
// exist or belongs to a different owner.
type Store interface {
	Create(ctx context.Context, ownerID int, amount float64, category string, date time.Time, notes *string) (*Expense, error)
	FindByID(ctx context.Context, id, ownerID int) (*Expense, error)
	// FindAll returns the owner's expenses ordered by date descending.
	FindAll(ctx context.Context, ownerID int) ([]Expense, error)
	// FindByMonth returns the owner's expenses within the calendar month,
	// ordered by date ascending.
	FindByMonth(ctx context.Context, ownerID, year int, month time.Month) ([]Expense, error)
	Update(ctx context.Context, id, ownerID int, amount float64, category string, date time.Time, notes *string) (*Expense, error)
	Delete(ctx context.Context, id, ownerID int) error
}

// PGStore is the PostgreSQL implementation of Store backed by a pgx
// connection pool.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a new PGStore.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Create inserts a new expense owned by ownerID.
func (s *PGStore) Create(ctx context.Context, ownerID int, amount float64, category string, date time.Time, notes *string) (*Expense, error) {
	e := &Expense{
		UserID:   ownerID,
		Amount:   amount,
		Category: category,
		Date:     date.Format(dateLayout),
		Notes:    notes,
	}
	query := `INSERT INTO expense (user_id, amount, category, date, notes)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, created_at`
	err := s.db.QueryRow(ctx, query, ownerID, amount, category, date, notes).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// FindByID retrieves a single expense scoped to its owner.
func (s *PGStore) FindByID(ctx context.Context, id, ownerID int) (*Expense, error) {
	query := `SELECT id, user_id, amount, category, date, notes, created_at
              FROM expense WHERE id = $1 AND user_id = $2`
	e, err := scanExpense(s.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// FindAll retrieves all expenses for the owner, newest date first.
func (s *PGStore) FindAll(ctx context.Context, ownerID int) ([]Expense, error) {
	query := `SELECT id, user_id, amount, category, date, notes, created_at
              FROM expense WHERE user_id = $1 ORDER BY date DESC`
	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// FindByMonth retrieves the owner's expenses within the given calendar month
// in ascending date order. The range is [first day, first day of next month),
// computed with real date arithmetic so short months never pick up entries
// from the following month.
func (s *PGStore) FindByMonth(ctx context.Context, ownerID, year int, month time.Month) ([]Expense, error) {
	start, end := monthRange(year, month)
	query := `SELECT id, user_id, amount, category, date, notes, created_at
              FROM expense WHERE user_id = $1 AND date >= $2 AND date < $3
              ORDER BY date ASC`
	rows, err := s.db.Query(ctx, query, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// Update rewrites the mutable fields of an expense. ErrNotFound is returned
// when no row matches both id and owner; the zero-rows-affected signal is the
// only ownership check needed.
func (s *PGStore) Update(ctx context.Context, id, ownerID int, amount float64, category string, date time.Time, notes *string) (*Expense, error) {
	query := `UPDATE expense SET amount = $1, category = $2, date = $3, notes = $4
              WHERE id = $5 AND user_id = $6
              RETURNING created_at`
	e := &Expense{
		ID:       id,
		UserID:   ownerID,
		Amount:   amount,
		Category: category,
		Date:     date.Format(dateLayout),
		Notes:    notes,
	}
	err := s.db.QueryRow(ctx, query, amount, category, date, notes, id, ownerID).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Delete removes an expense. ErrNotFound is returned when no row matches
// both id and owner.
func (s *PGStore) Delete(ctx context.Context, id, ownerID int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM expense WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// monthRange returns the half-open interval covering a calendar month.
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	var date time.Time
	if err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &date, &e.Notes, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Date = date.Format(dateLayout)
	return &e, nil
}

func collectExpenses(rows pgx.Rows) ([]Expense, error) {
	expenses := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}
