package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonlab/mimokit/pkg/i18n"
	"github.com/dragonlab/mimokit/pkg/notifications"
	"github.com/dragonlab/mimokit/pkg/realtime"
	"github.com/dragonlab/mimokit/pkg/tokenstore"
)

type coordinatorFixture struct {
	coord   *realtime.Coordinator
	manager *realtime.Manager
	store   *notifications.Store
	tokens  *tokenstore.MemoryStore

	mu         sync.Mutex
	transports []*fakeTransport
	resolved   int
}

func newCoordinatorFixture(t *testing.T, token string) *coordinatorFixture {
	t.Helper()

	fx := &coordinatorFixture{
		store:  notifications.NewStore(),
		tokens: tokenstore.NewMemoryStore(),
	}
	t.Cleanup(func() { _ = fx.store.Close() })

	if token != "" {
		require.NoError(t, fx.tokens.SetToken(context.Background(), token))
	}

	mgr, err := realtime.NewManager(func(tok string) (realtime.Transport, error) {
		ft := newFakeTransport(tok)
		fx.mu.Lock()
		fx.transports = append(fx.transports, ft)
		fx.mu.Unlock()
		return ft, nil
	})
	require.NoError(t, err)
	fx.manager = mgr

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fx.mu.Lock()
		fx.resolved++
		fx.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"channel": "private-notifications.token.7",
		})
	}))
	t.Cleanup(server.Close)

	tr, err := i18n.NewDefaultTranslator()
	require.NoError(t, err)
	formatter, err := realtime.NewFormatter(tr, "en")
	require.NoError(t, err)

	coord, err := realtime.NewCoordinator(mgr, fx.tokens, fx.store, formatter, server.URL)
	require.NoError(t, err)
	fx.coord = coord
	return fx
}

func (fx *coordinatorFixture) transport() *fakeTransport {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	if len(fx.transports) == 0 {
		return nil
	}
	return fx.transports[len(fx.transports)-1]
}

func TestCoordinator_IdleWithoutToken(t *testing.T) {
	t.Parallel()

	fx := newCoordinatorFixture(t, "")

	fx.coord.Start(context.Background())

	assert.False(t, fx.coord.IsInitialized())
	assert.False(t, fx.coord.IsConnected())
	assert.Nil(t, fx.manager.Get())
}

func TestCoordinator_StartJoinsPrivateChannel(t *testing.T) {
	t.Parallel()

	fx := newCoordinatorFixture(t, "tok-1")

	fx.coord.Start(context.Background())
	t.Cleanup(fx.coord.Stop)

	require.True(t, fx.coord.IsInitialized())
	assert.True(t, fx.coord.IsConnected())
	assert.Equal(t, "private-notifications.token.7", fx.coord.Channel())

	ft := fx.transport()
	require.NotNil(t, ft)
	assert.Equal(t, []string{"private-notifications.token.7"}, ft.joinedChannels())
	assert.Equal(t, "tok-1", ft.token)
}

func TestCoordinator_TransferEventBecomesNotification(t *testing.T) {
	t.Parallel()

	fx := newCoordinatorFixture(t, "tok-1")

	fx.coord.Start(context.Background())
	t.Cleanup(fx.coord.Stop)

	sub := fx.transport().subscription("private-notifications.token.7")
	require.NotNil(t, sub)

	sub.Dispatch(realtime.EventTransferCompleted, []byte(`{
		"type": 1, "status": 1,
		"amount_usdt": 100, "amount_vnd_real": 2613000,
		"rate": 26000, "fee_percent": 0.5, "fee_vnd": 13000
	}`))

	list := fx.store.List()
	require.Len(t, list, 1)
	assert.Equal(t, notifications.SeveritySuccess, list[0].Severity)
	assert.Contains(t, list[0].Message, "2,613,000 ₫")
	assert.Contains(t, list[0].Message, "100 USDT")

	// Malformed payloads are dropped, not queued.
	sub.Dispatch(realtime.EventTransferCompleted, []byte("not json"))
	assert.Equal(t, 1, fx.store.Len())
}

func TestCoordinator_StopLeavesChannelAndDisconnects(t *testing.T) {
	t.Parallel()

	fx := newCoordinatorFixture(t, "tok-1")

	fx.coord.Start(context.Background())
	ft := fx.transport()
	sub := ft.subscription("private-notifications.token.7")
	require.NotNil(t, sub)

	fx.coord.Stop()

	assert.False(t, fx.coord.IsInitialized())
	assert.False(t, fx.coord.IsConnected())
	assert.Equal(t, []string{"private-notifications.token.7"}, ft.leftChannels())
	assert.True(t, ft.isClosed())
	assert.Nil(t, fx.manager.Get())

	// Events after teardown no longer reach the store.
	sub.Dispatch(realtime.EventTransferCompleted, []byte(`{"type":1,"status":1,"amount_usdt":1,"amount_vnd":26000}`))
	assert.Equal(t, 0, fx.store.Len())
}

func TestCoordinator_RestartLeavesOldChannelFirst(t *testing.T) {
	t.Parallel()

	fx := newCoordinatorFixture(t, "tok-1")

	fx.coord.Start(context.Background())
	first := fx.transport()

	fx.coord.Start(context.Background())
	t.Cleanup(fx.coord.Stop)

	// The first activation's channel was left and its transport closed
	// before the second activation joined.
	assert.Equal(t, []string{"private-notifications.token.7"}, first.leftChannels())
	assert.True(t, first.isClosed())

	second := fx.transport()
	require.NotSame(t, first, second)
	assert.Equal(t, []string{"private-notifications.token.7"}, second.joinedChannels())
	assert.True(t, fx.coord.IsInitialized())
}

func TestCoordinator_ConcurrentStartBindsOnce(t *testing.T) {
	t.Parallel()

	fx := newCoordinatorFixture(t, "tok-1")
	t.Cleanup(fx.coord.Stop)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fx.coord.Start(context.Background())
		}()
	}
	wg.Wait()

	require.True(t, fx.coord.IsInitialized())

	// Only the surviving activation's bindings may handle events: one
	// dispatch yields exactly one notification.
	sub := fx.transport().subscription("private-notifications.token.7")
	require.NotNil(t, sub)
	sub.Dispatch(realtime.EventTransferCompleted, []byte(`{"type":1,"status":1,"amount_usdt":1,"amount_vnd":26000}`))
	assert.Equal(t, 1, fx.store.Len())

	// Every superseded transport was fully torn down.
	fx.mu.Lock()
	transports := append([]*fakeTransport(nil), fx.transports...)
	fx.mu.Unlock()
	for _, ft := range transports[:len(transports)-1] {
		assert.True(t, ft.isClosed())
	}
}

func TestCoordinator_ResolveFailureStaysIdle(t *testing.T) {
	t.Parallel()

	store := notifications.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	tokens := tokenstore.NewMemoryStoreWithToken("tok-1")

	mgr, err := realtime.NewManager(func(token string) (realtime.Transport, error) {
		return newFakeTransport(token), nil
	})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	tr, err := i18n.NewDefaultTranslator()
	require.NoError(t, err)
	formatter, err := realtime.NewFormatter(tr, "en")
	require.NoError(t, err)

	coord, err := realtime.NewCoordinator(mgr, tokens, store, formatter, server.URL)
	require.NoError(t, err)
	t.Cleanup(coord.Stop)

	coord.Start(context.Background())

	// Setup failed after init: no channel joined, no crash.
	assert.False(t, coord.IsInitialized())
	assert.Empty(t, coord.Channel())
}
