package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	createCalls int32
	handle      string
	createErr   error
	refreshErr  error
}

func (f *fakeClient) CreateCache(_ context.Context, _ string, _ time.Duration) (string, error) {
	atomic.AddInt32(&f.createCalls, 1)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.handle, nil
}

func (f *fakeClient) RefreshCacheTTL(_ context.Context, _ string, _ time.Duration) error {
	return f.refreshErr
}

func bigKnowledgeDocs() []string {
	doc := strings.Repeat("word ", 50_000)
	return []string{doc}
}

func TestGetOrCreate_BelowMinimumTokensReturnsNull(t *testing.T) {
	client := &fakeClient{handle: "cachedContents/abc"}
	m := NewManager(client, nil)

	handle, err := m.GetOrCreate(context.Background(), "agent-1", "short instruction", nil)
	require.NoError(t, err)
	assert.Empty(t, handle)
	assert.Equal(t, int32(0), client.createCalls)
}

func TestGetOrCreate_CreatesAndDeduplicates(t *testing.T) {
	client := &fakeClient{handle: "cachedContents/abc-123"}
	m := NewManager(client, nil)

	handle1, err := m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
	require.NoError(t, err)
	assert.Equal(t, "cachedContents/abc-123", handle1)

	handle2, err := m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
	require.NoError(t, err)
	assert.Equal(t, handle1, handle2)
	assert.Equal(t, int32(1), client.createCalls, "second call should reuse the cached handle")
}

func TestGetOrCreate_MalformedHandleReturnsNull(t *testing.T) {
	client := &fakeClient{handle: "not-a-valid-handle"}
	m := NewManager(client, nil)

	handle, err := m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
	require.NoError(t, err)
	assert.Empty(t, handle)
}

func TestGetOrCreate_NetworkErrorReturnsNull(t *testing.T) {
	client := &fakeClient{createErr: errors.New("network unreachable")}
	m := NewManager(client, nil)

	handle, err := m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
	require.NoError(t, err)
	assert.Empty(t, handle)
}

func TestGetOrCreate_SerializesPerAgent(t *testing.T) {
	client := &fakeClient{handle: "cachedContents/abc"}
	m := NewManager(client, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), client.createCalls)
}

func TestClear_ForcesRecreation(t *testing.T) {
	client := &fakeClient{handle: "cachedContents/abc"}
	m := NewManager(client, nil)

	_, err := m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
	require.NoError(t, err)

	m.Clear("agent-1")

	_, err = m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
	require.NoError(t, err)
	assert.Equal(t, int32(2), client.createCalls)
}

func TestRefreshTTL_BestEffortOnFailure(t *testing.T) {
	client := &fakeClient{handle: "cachedContents/abc", refreshErr: errors.New("rate limited")}
	m := NewManager(client, nil)

	_, err := m.GetOrCreate(context.Background(), "agent-1", "instruction", bigKnowledgeDocs())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RefreshTTL(context.Background(), "agent-1")
	})
}
