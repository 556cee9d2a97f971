package core

import (
	"context"
	"errors"
	"sync"

	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// countingUsers wraps a UserRepository, counts calls and can inject failures.
type countingUsers struct {
	db.UserRepository

	mu             sync.Mutex
	calls          int
	failGet        error
	failGetByEmail error
	failCreate     error
	failUpdate     error
	failIncrement  error
}

func (c *countingUsers) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingUsers) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	c.hit()
	if c.failGet != nil {
		return nil, c.failGet
	}
	return c.UserRepository.GetByID(ctx, id)
}

func (c *countingUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	c.hit()
	if c.failGetByEmail != nil {
		return nil, c.failGetByEmail
	}
	return c.UserRepository.GetByEmail(ctx, email)
}

func (c *countingUsers) Create(ctx context.Context, user *models.User) error {
	c.hit()
	if c.failCreate != nil {
		return c.failCreate
	}
	return c.UserRepository.Create(ctx, user)
}

func (c *countingUsers) UpdateSubscription(ctx context.Context, id string, change models.SubscriptionChange) error {
	c.hit()
	if c.failUpdate != nil {
		return c.failUpdate
	}
	return c.UserRepository.UpdateSubscription(ctx, id, change)
}

func (c *countingUsers) IncrementAIImagesGenerated(ctx context.Context, id string) error {
	c.hit()
	if c.failIncrement != nil {
		return c.failIncrement
	}
	return c.UserRepository.IncrementAIImagesGenerated(ctx, id)
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, exchange, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{exchange, routingKey, body})
	return p.err
}

type stubGenerator struct {
	calls int
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, _ string) (*models.GeneratedImage, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &models.GeneratedImage{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}, nil
}

type stubGateway struct {
	last models.CheckoutTransactionRequest
	err  error
}

func (g *stubGateway) CreateTransaction(_ context.Context, req models.CheckoutTransactionRequest) (*models.CheckoutTransaction, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &models.CheckoutTransaction{TransactionID: "txn_123", Status: "ready", CheckoutURL: "https://pay.example.com/checkout?_ptxn=txn_123"}, nil
}

