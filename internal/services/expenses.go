package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/search"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// ExpenseInput is the write payload for expenses.
type ExpenseInput struct {
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	CategoryID    string  `json:"categoryId,omitempty"`
	Date          string  `json:"date,omitempty"`
	Note          string  `json:"note,omitempty"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
}

// ExpenseService reads and writes expenses. Lists are ordered by creation
// time, newest first.
type ExpenseService struct {
	Client Doer
}

// NewExpenseService constructs an ExpenseService.
func NewExpenseService(c Doer) *ExpenseService {
	return &ExpenseService{Client: c}
}

// List returns every expense.
func (s *ExpenseService) List(ctx context.Context) (out []domain.Expense, err error) {
	ctx, span := startSpan(ctx, "ExpenseService", "List")
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.Expense](ctx, s.Client, transport.Get(pathExpenses))
	if err != nil {
		return nil, err
	}
	return domain.SortRecent(items), nil
}

// Search returns expenses matching keyword on the backend.
func (s *ExpenseService) Search(ctx context.Context, keyword string) (out []domain.Expense, err error) {
	keyword = search.NormalizeKeyword(keyword)
	if keyword == "" {
		return s.List(ctx)
	}
	ctx, span := startSpan(ctx, "ExpenseService", "Search", attribute.String("keyword", keyword))
	defer func() { endSpan(span, err) }()

	items, err := readList[domain.Expense](ctx, s.Client,
		transport.Get(pathSearchExpense).WithQuery(paramSearch, keyword))
	if err != nil {
		return nil, err
	}
	return domain.SortRecent(items), nil
}

// Create records a new expense.
func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (out *domain.Expense, err error) {
	ctx, span := startSpan(ctx, "ExpenseService", "Create")
	defer func() { endSpan(span, err) }()

	in = cleanPayload(in)
	if in.Description == "" {
		return nil, ErrInvalidInput
	}
	return write[domain.Expense](ctx, s.Client, transport.Post(pathCreateExpense, in))
}

// Update replaces the expense with id.
func (s *ExpenseService) Update(ctx context.Context, id string, in ExpenseInput) (out *domain.Expense, err error) {
	ctx, span := startSpan(ctx, "ExpenseService", "Update", attribute.String("expense.id", id))
	defer func() { endSpan(span, err) }()

	path, err := pathID(pathUpdateExpense, id)
	if err != nil {
		return nil, err
	}
	in = cleanPayload(in)
	if in.Description == "" {
		return nil, ErrInvalidInput
	}
	return write[domain.Expense](ctx, s.Client, transport.Put(path, in))
}

// Delete removes the expense with id.
func (s *ExpenseService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "ExpenseService", "Delete", attribute.String("expense.id", id))
	defer func() { endSpan(span, err) }()
	return runCommand(ctx, s.Client, pathDeleteExpense, id, transport.Delete)
}
