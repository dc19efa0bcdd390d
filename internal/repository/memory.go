package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

// MemoryStore implements Store entirely in memory. One mutex serializes all
// operations; RunAtomic snapshots the state before the unit of work and
// restores it when the unit fails, so a failed unit leaves no partial effect.
// Used by tests and by the console in memory mode.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) RunAtomic(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&memoryTx{state: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createCustomer(customer)
}

func (s *MemoryStore) GetCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getCustomerByID(id)
}

func (s *MemoryStore) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getCustomerByEmail(email)
}

func (s *MemoryStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.updateCustomer(customer)
}

func (s *MemoryStore) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.deleteCustomer(id)
}

func (s *MemoryStore) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listCustomers()
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createAccount(account)
}

func (s *MemoryStore) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getAccountByID(id)
}

func (s *MemoryStore) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getAccountByNumber(number)
}

func (s *MemoryStore) GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getAccountByID(id)
}

func (s *MemoryStore) UpdateAccountBalance(ctx context.Context, id string, newBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.updateAccountBalance(id, newBalance)
}

func (s *MemoryStore) UpdateAccountStatus(ctx context.Context, id string, status models.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.updateAccountStatus(id, status)
}

func (s *MemoryStore) ListAccountsByCustomer(ctx context.Context, customerID string) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listAccountsByCustomer(customerID)
}

func (s *MemoryStore) CountAccountsByCustomer(ctx context.Context, customerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.countAccountsByCustomer(customerID), nil
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createTransaction(transaction)
}

func (s *MemoryStore) ListTransactionsByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listTransactionsByAccount(accountID, 0)
}

func (s *MemoryStore) ListRecentTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listTransactionsByAccount(accountID, limit)
}

func (s *MemoryStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createAuditLog(log)
}

func (s *MemoryStore) ListAuditLogsByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listAuditLogsByEntity(entityType, entityID), nil
}

// memoryTx is the Store view handed to RunAtomic callbacks. The MemoryStore
// mutex is already held, so it delegates to the state without locking.
type memoryTx struct {
	state *memoryState
}

// RunAtomic on a memoryTx joins the enclosing scope.
func (t *memoryTx) RunAtomic(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return t.state.createCustomer(customer)
}

func (t *memoryTx) GetCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	return t.state.getCustomerByID(id)
}

func (t *memoryTx) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return t.state.getCustomerByEmail(email)
}

func (t *memoryTx) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	return t.state.updateCustomer(customer)
}

func (t *memoryTx) DeleteCustomer(ctx context.Context, id string) error {
	return t.state.deleteCustomer(id)
}

func (t *memoryTx) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return t.state.listCustomers()
}

func (t *memoryTx) CreateAccount(ctx context.Context, account *models.Account) error {
	return t.state.createAccount(account)
}

func (t *memoryTx) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return t.state.getAccountByID(id)
}

func (t *memoryTx) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	return t.state.getAccountByNumber(number)
}

func (t *memoryTx) GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	return t.state.getAccountByID(id)
}

func (t *memoryTx) UpdateAccountBalance(ctx context.Context, id string, newBalance decimal.Decimal) error {
	return t.state.updateAccountBalance(id, newBalance)
}

func (t *memoryTx) UpdateAccountStatus(ctx context.Context, id string, status models.AccountStatus) error {
	return t.state.updateAccountStatus(id, status)
}

func (t *memoryTx) ListAccountsByCustomer(ctx context.Context, customerID string) ([]*models.Account, error) {
	return t.state.listAccountsByCustomer(customerID)
}

func (t *memoryTx) CountAccountsByCustomer(ctx context.Context, customerID string) (int, error) {
	return t.state.countAccountsByCustomer(customerID), nil
}

func (t *memoryTx) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	return t.state.createTransaction(transaction)
}

func (t *memoryTx) ListTransactionsByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	return t.state.listTransactionsByAccount(accountID, 0)
}

func (t *memoryTx) ListRecentTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	return t.state.listTransactionsByAccount(accountID, limit)
}

func (t *memoryTx) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return t.state.createAuditLog(log)
}

func (t *memoryTx) ListAuditLogsByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditLog, error) {
	return t.state.listAuditLogsByEntity(entityType, entityID), nil
}

type memoryState struct {
	customers        map[string]models.Customer
	accounts         map[string]models.Account
	customersByEmail map[string]string
	accountsByNumber map[string]string
	transactions     []models.Transaction
	auditLogs        []models.AuditLog
	lastStamp        time.Time
}

func newMemoryState() *memoryState {
	return &memoryState{
		customers:        make(map[string]models.Customer),
		accounts:         make(map[string]models.Account),
		customersByEmail: make(map[string]string),
		accountsByNumber: make(map[string]string),
	}
}

func (st *memoryState) clone() *memoryState {
	cp := &memoryState{
		customers:        make(map[string]models.Customer, len(st.customers)),
		accounts:         make(map[string]models.Account, len(st.accounts)),
		customersByEmail: make(map[string]string, len(st.customersByEmail)),
		accountsByNumber: make(map[string]string, len(st.accountsByNumber)),
		transactions:     append([]models.Transaction(nil), st.transactions...),
		auditLogs:        append([]models.AuditLog(nil), st.auditLogs...),
		lastStamp:        st.lastStamp,
	}
	for id, c := range st.customers {
		cp.customers[id] = c
	}
	for id, a := range st.accounts {
		cp.accounts[id] = a
	}
	for email, id := range st.customersByEmail {
		cp.customersByEmail[email] = id
	}
	for number, id := range st.accountsByNumber {
		cp.accountsByNumber[number] = id
	}
	return cp
}

// stamp returns a non-decreasing timestamp, mirroring the append-order
// guarantee of the Postgres store.
func (st *memoryState) stamp() time.Time {
	t := time.Now().UTC()
	if t.Before(st.lastStamp) {
		t = st.lastStamp
	}
	st.lastStamp = t
	return t
}

func (st *memoryState) createCustomer(customer *models.Customer) error {
	if _, exists := st.customersByEmail[customer.Email]; exists {
		return errors.NewDuplicateEmail(customer.Email)
	}
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	now := st.stamp()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	st.customers[customer.ID] = *customer
	st.customersByEmail[customer.Email] = customer.ID
	return nil
}

func (st *memoryState) getCustomerByID(id string) (*models.Customer, error) {
	c, ok := st.customers[id]
	if !ok {
		return nil, errors.NewCustomerNotFound(id)
	}
	return &c, nil
}

func (st *memoryState) getCustomerByEmail(email string) (*models.Customer, error) {
	id, ok := st.customersByEmail[email]
	if !ok {
		return nil, errors.NewCustomerNotFound(email)
	}
	c := st.customers[id]
	return &c, nil
}

func (st *memoryState) updateCustomer(customer *models.Customer) error {
	existing, ok := st.customers[customer.ID]
	if !ok {
		return errors.NewCustomerNotFound(customer.ID)
	}
	if otherID, exists := st.customersByEmail[customer.Email]; exists && otherID != customer.ID {
		return errors.NewDuplicateEmail(customer.Email)
	}
	delete(st.customersByEmail, existing.Email)
	customer.CreatedAt = existing.CreatedAt
	customer.UpdatedAt = st.stamp()
	st.customers[customer.ID] = *customer
	st.customersByEmail[customer.Email] = customer.ID
	return nil
}

func (st *memoryState) deleteCustomer(id string) error {
	existing, ok := st.customers[id]
	if !ok {
		return errors.NewCustomerNotFound(id)
	}
	delete(st.customers, id)
	delete(st.customersByEmail, existing.Email)
	return nil
}

func (st *memoryState) listCustomers() ([]*models.Customer, error) {
	out := make([]*models.Customer, 0, len(st.customers))
	for _, c := range st.customers {
		cp := c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (st *memoryState) createAccount(account *models.Account) error {
	if _, exists := st.accountsByNumber[account.AccountNumber]; exists {
		return errors.NewDuplicateAccountNumber(account.AccountNumber)
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := st.stamp()
	account.CreatedAt = now
	account.UpdatedAt = now
	st.accounts[account.ID] = *account
	st.accountsByNumber[account.AccountNumber] = account.ID
	return nil
}

func (st *memoryState) getAccountByID(id string) (*models.Account, error) {
	a, ok := st.accounts[id]
	if !ok {
		return nil, errors.NewAccountNotFound(id)
	}
	return &a, nil
}

func (st *memoryState) getAccountByNumber(number string) (*models.Account, error) {
	id, ok := st.accountsByNumber[number]
	if !ok {
		return nil, errors.NewAccountNotFound(number)
	}
	a := st.accounts[id]
	return &a, nil
}

func (st *memoryState) updateAccountBalance(id string, newBalance decimal.Decimal) error {
	a, ok := st.accounts[id]
	if !ok {
		return errors.NewAccountNotFound(id)
	}
	a.Balance = newBalance
	a.UpdatedAt = st.stamp()
	st.accounts[id] = a
	return nil
}

func (st *memoryState) updateAccountStatus(id string, status models.AccountStatus) error {
	a, ok := st.accounts[id]
	if !ok {
		return errors.NewAccountNotFound(id)
	}
	a.Status = status
	a.UpdatedAt = st.stamp()
	st.accounts[id] = a
	return nil
}

func (st *memoryState) listAccountsByCustomer(customerID string) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range st.accounts {
		if a.CustomerID == customerID {
			cp := a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (st *memoryState) countAccountsByCustomer(customerID string) int {
	count := 0
	for _, a := range st.accounts {
		if a.CustomerID == customerID {
			count++
		}
	}
	return count
}

func (st *memoryState) createTransaction(transaction *models.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	transaction.CreatedAt = st.stamp()
	st.transactions = append(st.transactions, *transaction)
	return nil
}

// listTransactionsByAccount returns the account's transactions most recent
// first; limit 0 means unbounded.
func (st *memoryState) listTransactionsByAccount(accountID string, limit int) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for i := len(st.transactions) - 1; i >= 0; i-- {
		if st.transactions[i].AccountID != accountID {
			continue
		}
		cp := st.transactions[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (st *memoryState) createAuditLog(log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	log.CreatedAt = st.stamp()
	st.auditLogs = append(st.auditLogs, *log)
	return nil
}

func (st *memoryState) listAuditLogsByEntity(entityType, entityID string) []*models.AuditLog {
	var out []*models.AuditLog
	for i := len(st.auditLogs) - 1; i >= 0; i-- {
		if st.auditLogs[i].EntityType == entityType && st.auditLogs[i].EntityID == entityID {
			cp := st.auditLogs[i]
			out = append(out, &cp)
		}
	}
	return out
}
