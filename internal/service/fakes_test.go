package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/pkg/util"
)

// fakeAccountRepo is an in-memory AccountRepository for service tests.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (f *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[account.Email]; exists {
		return util.NewValidationError("email already registered", nil)
	}
	account.ID = uuid.NewString()
	account.Version = 1
	stored := *account
	f.accounts[account.Email] = &stored
	return nil
}

func (f *fakeAccountRepo) CreateSubUser(_ context.Context, sub *domain.Account, maxSubUsers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.accounts {
		if a.Kind == domain.AccountKindSub && a.OwnerEmail != nil && *a.OwnerEmail == *sub.OwnerEmail {
			count++
		}
	}
	if count >= maxSubUsers {
		return util.NewLimitExceeded("sub-user limit reached", nil)
	}
	sub.ID = uuid.NewString()
	sub.Version = 1
	stored := *sub
	f.accounts[sub.Email] = &stored
	return nil
}

func (f *fakeAccountRepo) Update(_ context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[account.Email]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != account.Version {
		return util.NewConflict("account was modified concurrently", nil)
	}
	account.Version++
	copied := *account
	f.accounts[account.Email] = &copied
	return nil
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccountRepo) CountSubUsers(_ context.Context, ownerEmail string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.accounts {
		if a.Kind == domain.AccountKindSub && a.OwnerEmail != nil && *a.OwnerEmail == ownerEmail {
			count++
		}
	}
	return count, nil
}

func (f *fakeAccountRepo) ListSubUsers(_ context.Context, ownerEmail string) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Account
	for _, a := range f.accounts {
		if a.Kind == domain.AccountKindSub && a.OwnerEmail != nil && *a.OwnerEmail == ownerEmail {
			result = append(result, *a)
		}
	}
	return result, nil
}

// fakeTicketRepo is an in-memory TicketRepository.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	history *fakeHistoryRepo
}

func newFakeTicketRepo(history *fakeHistoryRepo) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), history: history}
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket, entry *domain.HistoryEntry) error {
	f.mu.Lock()
	ticket.ID = uuid.NewString()
	ticket.Version = 1
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	f.mu.Unlock()
	entry.TicketID = ticket.ID
	return f.history.Append(ctx, entry)
}

func (f *fakeTicketRepo) SaveResponse(ctx context.Context, ticket *domain.Ticket, entry *domain.HistoryEntry) error {
	f.mu.Lock()
	stored, ok := f.tickets[ticket.ID]
	if !ok {
		f.mu.Unlock()
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		f.mu.Unlock()
		return util.NewConflict("ticket was modified concurrently", nil)
	}
	ticket.Version++
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	f.mu.Unlock()
	return f.history.Append(ctx, entry)
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeTicketRepo) GetByTicketNo(_ context.Context, ticketNo string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.TicketNo == ticketNo {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, t := range f.tickets {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.CreatorEmail != nil && t.CreatorEmail != *filter.CreatorEmail {
			continue
		}
		if filter.TextQuery != nil {
			q := strings.ToLower(strings.TrimSpace(*filter.TextQuery))
			if q != "" &&
				!strings.Contains(strings.ToLower(t.TicketNo), q) &&
				!strings.Contains(strings.ToLower(t.Subject), q) &&
				!strings.Contains(strings.ToLower(t.CreatorEmail), q) {
				continue
			}
		}
		result = append(result, *t)
	}
	return result, nil
}

// fakeHistoryRepo is an in-memory TicketHistoryRepository.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	nextSeq int64
	entries []domain.HistoryEntry
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{nextSeq: 1}
}

func (f *fakeHistoryRepo) Append(_ context.Context, entry *domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.Seq = f.nextSeq
	f.nextSeq++
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.HistoryEntry
	for _, e := range f.entries {
		if e.TicketID == ticketID {
			result = append(result, e)
		}
	}
	return result, nil
}
