package service

import (
	"context"
	"sync"
	"time"

	"lzpending/internal/models"
	"lzpending/pkg/hexscan"
	"lzpending/pkg/layerzero"

	"github.com/stretchr/testify/mock"
)

const testTxPageBase = "https://layerzeroscan.com/tx"

// mockScanClient is a testify mock of layerzero.Client. TxPageURL is not
// mocked; it mirrors the real client's join.
type mockScanClient struct {
	mock.Mock
}

func (m *mockScanClient) FetchMessages(ctx context.Context, owner string, page, limit int) layerzero.Outcome[[]layerzero.RawMessage] {
	args := m.Called(ctx, owner, page, limit)
	return args.Get(0).(layerzero.Outcome[[]layerzero.RawMessage])
}

func (m *mockScanClient) FetchDetailDocument(ctx context.Context, txHash string) layerzero.Outcome[string] {
	args := m.Called(ctx, txHash)
	return args.Get(0).(layerzero.Outcome[string])
}

func (m *mockScanClient) TxPageURL(txHash string) string {
	return testTxPageBase + "/" + txHash
}

// memoryCache is an in-memory ExtractionCache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]hexscan.Candidates
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]hexscan.Candidates)}
}

func (c *memoryCache) Get(txHash string) (hexscan.Candidates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[txHash]
	return v, ok
}

func (c *memoryCache) Set(txHash string, candidates hexscan.Candidates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[txHash] = candidates
	c.sets++
}

// mockPendingService is a testify mock of PendingService.
type mockPendingService struct {
	mock.Mock
}

func (m *mockPendingService) GetPendingMessages(ctx context.Context, owner string) ([]models.PendingMessageSummary, error) {
	args := m.Called(ctx, owner)
	if v := args.Get(0); v != nil {
		return v.([]models.PendingMessageSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockSightingStore is a testify mock of SightingStore.
type mockSightingStore struct {
	mock.Mock
}

func (m *mockSightingStore) UpsertSighting(ctx context.Context, s *models.Sighting) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSightingStore) PruneSightingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
