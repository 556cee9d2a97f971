package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"livewall-backend-go/internal/models"
)

// MemoryStore is a process-local implementation of the repositories, selected with
// STORE_DRIVER=memory. It backs local development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]models.User
	wallpapers map[string]models.Wallpaper
	orders     map[string]models.Order
	audit      []models.AuditLog
	now        func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.User),
		wallpapers: make(map[string]models.Wallpaper),
		orders:     make(map[string]models.Order),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the UserRepository view of the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Wallpapers returns the WallpaperRepository view of the store.
func (s *MemoryStore) Wallpapers() WallpaperRepository { return memoryWallpapers{s} }

// Orders returns the OrderRepository view of the store.
func (s *MemoryStore) Orders() OrderRepository { return memoryOrders{s} }

// Audit returns the AuditRepository view of the store.
func (s *MemoryStore) Audit() AuditRepository { return memoryAudit{s} }

// AuditLogs returns a copy of every audit entry recorded so far.
func (s *MemoryStore) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.audit...)
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	user, ok := m.s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	return cloneUser(user), nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	// Deterministic pick when several records share an email.
	ids := make([]string, 0, len(m.s.users))
	for id, user := range m.s.users {
		if user.Email == email {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("user with email '%s' not found: %w", email, ErrNotFound)
	}
	sort.Strings(ids)
	return cloneUser(m.s.users[ids[0]]), nil
}

func (m memoryUsers) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID cannot be empty for Create operation")
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.users[user.ID]; exists {
		return fmt.Errorf("user with ID '%s': %w", user.ID, ErrAlreadyExists)
	}
	stored := *cloneUser(*user)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.s.now()
	}
	stored.UpdatedAt = m.s.now()
	m.s.users[user.ID] = stored
	return nil
}

func (m memoryUsers) UpdateSubscription(_ context.Context, userID string, change models.SubscriptionChange) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	user.SubscriptionStatus = change.Status
	switch {
	case change.Reference != nil:
		id := change.Reference.ID
		end := change.Reference.EndDate
		user.SubscriptionID = &id
		user.SubscriptionEndDate = &end
	case change.ClearReference:
		user.SubscriptionID = nil
		user.SubscriptionEndDate = nil
	}
	user.UpdatedAt = m.s.now()
	m.s.users[userID] = user
	return nil
}

func (m memoryUsers) IncrementAIImagesGenerated(_ context.Context, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	user.AIImagesGenerated++
	user.UpdatedAt = m.s.now()
	m.s.users[userID] = user
	return nil
}

func cloneUser(user models.User) *models.User {
	if user.SubscriptionID != nil {
		id := *user.SubscriptionID
		user.SubscriptionID = &id
	}
	if user.SubscriptionEndDate != nil {
		end := *user.SubscriptionEndDate
		user.SubscriptionEndDate = &end
	}
	return &user
}

type memoryWallpapers struct{ s *MemoryStore }

func (m memoryWallpapers) Create(_ context.Context, wallpaper *models.Wallpaper) (string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	id := uuid.NewString()
	stored := *wallpaper
	stored.ID = id
	stored.Tags = append([]string(nil), wallpaper.Tags...)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.s.now()
	}
	m.s.wallpapers[id] = stored
	wallpaper.ID = id
	return id, nil
}

func (m memoryWallpapers) GetByID(_ context.Context, wallpaperID string) (*models.Wallpaper, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	wallpaper, ok := m.s.wallpapers[wallpaperID]
	if !ok {
		return nil, fmt.Errorf("wallpaper with ID '%s' not found: %w", wallpaperID, ErrNotFound)
	}
	return &wallpaper, nil
}

func (m memoryWallpapers) List(_ context.Context, params models.ListWallpapersParams) ([]*models.Wallpaper, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	matched := make([]*models.Wallpaper, 0, len(m.s.wallpapers))
	for _, wallpaper := range m.s.wallpapers {
		if params.Category != "" && wallpaper.Category != params.Category {
			continue
		}
		w := wallpaper
		matched = append(matched, &w)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if params.Offset >= len(matched) {
		return []*models.Wallpaper{}, nil
	}
	matched = matched[params.Offset:]
	if params.Limit > 0 && params.Limit < len(matched) {
		matched = matched[:params.Limit]
	}
	return matched, nil
}

func (m memoryWallpapers) IncrementCounter(_ context.Context, wallpaperID, field string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	wallpaper, ok := m.s.wallpapers[wallpaperID]
	if !ok {
		return fmt.Errorf("wallpaper with ID '%s' not found: %w", wallpaperID, ErrNotFound)
	}
	switch field {
	case models.WallpaperCounterLikes:
		wallpaper.Likes++
	case models.WallpaperCounterDownloads:
		wallpaper.Downloads++
	default:
		return fmt.Errorf("unknown wallpaper counter %q", field)
	}
	m.s.wallpapers[wallpaperID] = wallpaper
	return nil
}

type memoryOrders struct{ s *MemoryStore }

func (m memoryOrders) Create(_ context.Context, order *models.Order) (string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	id := uuid.NewString()
	stored := *order
	stored.ID = id
	stored.WallpaperIDs = append([]string(nil), order.WallpaperIDs...)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.s.now()
	}
	stored.UpdatedAt = m.s.now()
	m.s.orders[id] = stored
	order.ID = id
	return id, nil
}

func (m memoryOrders) GetByID(_ context.Context, orderID string) (*models.Order, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	order, ok := m.s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order with ID '%s' not found: %w", orderID, ErrNotFound)
	}
	return &order, nil
}

func (m memoryOrders) ListByUser(_ context.Context, userID string) ([]*models.Order, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var orders []*models.Order
	for _, order := range m.s.orders {
		if order.UserID == userID {
			o := order
			orders = append(orders, &o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m memoryOrders) MarkCompleted(_ context.Context, orderID, transactionID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	order, ok := m.s.orders[orderID]
	if !ok {
		return fmt.Errorf("order with ID '%s' not found: %w", orderID, ErrNotFound)
	}
	now := m.s.now()
	order.Status = models.OrderStatusCompleted
	order.TransactionID = transactionID
	order.CompletedAt = &now
	order.UpdatedAt = now
	m.s.orders[orderID] = order
	return nil
}

type memoryAudit struct{ s *MemoryStore }

func (m memoryAudit) Create(_ context.Context, logEntry models.AuditLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if logEntry.ID == "" {
		logEntry.ID = uuid.NewString()
	}
	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = m.s.now()
	}
	m.s.audit = append(m.s.audit, logEntry)
	return nil
}
