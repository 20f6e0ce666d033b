package syncbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stationops/backend/internal/infrastructure/remote"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu          sync.Mutex
	pingErr     error
	collections map[string][]json.RawMessage
	pushed      map[string][]json.RawMessage
	fetchCalls  map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		collections: make(map[string][]json.RawMessage),
		pushed:      make(map[string][]json.RawMessage),
		fetchCalls:  make(map[string]int),
	}
}

func (f *fakeRemote) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeRemote) FetchCollection(ctx context.Context, table string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls[table]++
	return f.collections[table], nil
}

func (f *fakeRemote) PushCollection(ctx context.Context, table string, docs []json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed[table] = docs
	return nil
}

func (f *fakeRemote) fetchCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls[table]
}

type fakeFeed struct {
	mu        sync.Mutex
	handler   func(remote.ChangeEvent)
	subErr    error
	closed    int
	subscribe []string
}

func (f *fakeFeed) Subscribe(ctx context.Context, tables []string, handler func(remote.ChangeEvent)) error {
	if f.subErr != nil {
		return f.subErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribe = tables
	f.handler = handler
	return nil
}

func (f *fakeFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeFeed) emit(event remote.ChangeEvent) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

func newTestBridge(rs *fakeRemote, feed *fakeFeed, st *state.Store) *Bridge {
	return New(rs, feed, st, Config{ProbeTimeout: time.Second}, nil)
}

func TestStartPullsCollectionsAndSubscribes(t *testing.T) {
	rs := newFakeRemote()
	rs.collections[string(state.CollectionSuppliers)] = []json.RawMessage{
		json.RawMessage(`{"id":"s1","name":"Coastal Fuels Ltd"}`),
	}
	feed := &fakeFeed{}
	st := state.NewStore(true)
	bridge := newTestBridge(rs, feed, st)

	require.NoError(t, bridge.Start(context.Background()))
	t.Cleanup(func() { _ = bridge.Close() })

	status := bridge.Status()
	assert.True(t, status.Ready)
	assert.False(t, status.Degraded)
	assert.Equal(t, ConflictPolicyLastWriterWins, status.ConflictPolicy)

	assert.Len(t, st.Docs(state.CollectionSuppliers), 1)
	assert.ElementsMatch(t, feed.subscribe, []string{
		"orders", "logs", "suppliers", "drivers", "trucks", "gps_data", "ai_insights",
	})
}

func TestStartFailedProbeDegrades(t *testing.T) {
	rs := newFakeRemote()
	rs.pingErr = fmt.Errorf("connection refused")
	feed := &fakeFeed{}
	st := state.NewStore(true)
	bridge := newTestBridge(rs, feed, st)

	require.NoError(t, bridge.Start(context.Background()))

	status := bridge.Status()
	assert.False(t, status.Ready)
	assert.True(t, status.Degraded)

	// No pull happened in degraded mode
	assert.Equal(t, 0, rs.fetchCount("orders"))
}

func TestStartFailedSubscriptionDegrades(t *testing.T) {
	rs := newFakeRemote()
	feed := &fakeFeed{subErr: fmt.Errorf("redis unavailable")}
	st := state.NewStore(true)
	bridge := newTestBridge(rs, feed, st)

	require.NoError(t, bridge.Start(context.Background()))

	status := bridge.Status()
	assert.True(t, status.Degraded)
	assert.False(t, status.Ready)

	// A degraded bridge operates on local data only; nothing reaches
	// the remote store.
	bridge.Push(context.Background())
	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Empty(t, rs.pushed)
}

func TestChangeEventTriggersReload(t *testing.T) {
	rs := newFakeRemote()
	feed := &fakeFeed{}
	st := state.NewStore(true)
	bridge := newTestBridge(rs, feed, st)
	require.NoError(t, bridge.Start(context.Background()))
	t.Cleanup(func() { _ = bridge.Close() })

	before := rs.fetchCount(string(state.CollectionTrucks))
	rs.mu.Lock()
	rs.collections[string(state.CollectionTrucks)] = []json.RawMessage{
		json.RawMessage(`{"id":"t1","plate":"KAB 123"}`),
	}
	rs.mu.Unlock()

	feed.emit(remote.ChangeEvent{Kind: remote.EventInsert, Table: string(state.CollectionTrucks)})

	assert.Equal(t, before+1, rs.fetchCount(string(state.CollectionTrucks)))
	assert.Len(t, st.Docs(state.CollectionTrucks), 1)
}

func TestReloadOverwritesLocalEdits(t *testing.T) {
	rs := newFakeRemote()
	rs.collections[string(state.CollectionDrivers)] = []json.RawMessage{
		json.RawMessage(`{"id":"remote"}`),
	}
	feed := &fakeFeed{}
	st := state.NewStore(true)
	st.ReplaceDocs(state.CollectionDrivers, []json.RawMessage{json.RawMessage(`{"id":"local"}`)})
	bridge := newTestBridge(rs, feed, st)

	require.NoError(t, bridge.Start(context.Background()))
	t.Cleanup(func() { _ = bridge.Close() })

	docs := st.Docs(state.CollectionDrivers)
	require.Len(t, docs, 1)
	assert.JSONEq(t, `{"id":"remote"}`, string(docs[0]))
}

func TestPushUploadsCollections(t *testing.T) {
	rs := newFakeRemote()
	feed := &fakeFeed{}
	st := state.NewStore(true)
	bridge := newTestBridge(rs, feed, st)
	require.NoError(t, bridge.Start(context.Background()))
	t.Cleanup(func() { _ = bridge.Close() })

	st.ReplaceDocs(state.CollectionSuppliers, []json.RawMessage{json.RawMessage(`{"id":"s9"}`)})
	bridge.Push(context.Background())

	rs.mu.Lock()
	defer rs.mu.Unlock()
	require.Len(t, rs.pushed[string(state.CollectionSuppliers)], 1)
	assert.JSONEq(t, `{"id":"s9"}`, string(rs.pushed[string(state.CollectionSuppliers)][0]))
}

func TestPushSkippedWhenNotReady(t *testing.T) {
	rs := newFakeRemote()
	rs.pingErr = fmt.Errorf("down")
	feed := &fakeFeed{}
	st := state.NewStore(true)
	bridge := newTestBridge(rs, feed, st)
	require.NoError(t, bridge.Start(context.Background()))

	bridge.Push(context.Background())

	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Empty(t, rs.pushed)
}

func TestCloseIsIdempotent(t *testing.T) {
	rs := newFakeRemote()
	feed := &fakeFeed{}
	st := state.NewStore(true)
	bridge := newTestBridge(rs, feed, st)
	require.NoError(t, bridge.Start(context.Background()))

	require.NoError(t, bridge.Close())
	require.NoError(t, bridge.Close())
	assert.Equal(t, 1, feed.closed)
	assert.False(t, bridge.Status().Ready)
}
