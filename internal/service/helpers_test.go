package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRepo opens a private in-memory database. A single connection keeps
// every transaction serialized, the way row locks do on Postgres.
func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.AutoMigrate(context.Background()))
	return r
}

func seedUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	pw, err := pkg_hash.HashPassword("password")
	require.NoError(t, err)
	u := &models.User{Name: "Test User", Email: email, Phone: "9876543210", PasswordHash: pw}
	require.NoError(t, r.DB.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, r *repo.GormRepo, title string, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Title:       title,
		Description: title + " description",
		Price:       decimal.NewFromInt(price),
		Brand:       "acme",
		Category:    "tools",
		Stock:       stock,
	}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}

func stockOf(t *testing.T, r *repo.GormRepo, id uuid.UUID) int {
	t.Helper()
	p, err := r.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

type publishedEvent struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (f *fakePublisher) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Topic)
	}
	return out
}

func (f *fakePublisher) last(t *testing.T) publishedEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.events)
	return f.events[len(f.events)-1]
}

type fakeNotifier struct {
	mu         sync.Mutex
	resetLinks []string
	confirmed  []uuid.UUID
	err        error
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, _, _, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.resetLinks = append(f.resetLinks, link)
	return nil
}

func (f *fakeNotifier) SendOrderConfirmation(_ context.Context, _ string, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.confirmed = append(f.confirmed, order.ID)
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	sessions int
	items    []payment.LineItem
	status   string
	err      error
	lookups  int
	onLookup func(ctx context.Context)
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, items []payment.LineItem, _, _ string) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sessions++
	f.items = items
	id := "cs_test_" + uuid.NewString()
	return &payment.Session{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (f *fakeGateway) GetSessionStatus(ctx context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.onLookup != nil {
		f.onLookup(ctx)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.status, nil
}
