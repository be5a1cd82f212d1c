package session_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/api"
	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/session"
	"github.com/shashiranjanraj/nexus/pkg/storage"
	"github.com/shashiranjanraj/nexus/pkg/testkit"
)

type harness struct {
	be     *testkit.Backend
	client *api.Client
	state  *storage.Memory
	rec    *notification.Recorder
	sess   *session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	be := testkit.NewBackend(t)
	be.AddUser("amina", "Secret123", false)
	be.AddUser("root", "Admin1234", true)
	return reopen(be, storage.NewMemory())
}

// reopen builds a fresh process over the same backend and state, the way a
// second CLI invocation would.
func reopen(be *testkit.Backend, state *storage.Memory) *harness {
	transport := nxhttp.New(be.URL())
	client := api.New(transport)
	rec := &notification.Recorder{}
	sess := session.New(client, state, rec)
	transport.SetTokenSource(sess)
	return &harness{be: be, client: client, state: state, rec: rec, sess: sess}
}

func (h *harness) stored(t *testing.T, key string) string {
	t.Helper()
	raw, err := h.state.Get(context.Background(), key)
	if err != nil {
		return ""
	}
	return string(raw)
}

func TestLoginPersistsTokensAndProfile(t *testing.T) {
	h := newHarness(t)

	user, err := h.sess.Login(context.Background(), "amina", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "amina", user.Username)
	assert.Equal(t, session.Authenticated, h.sess.State())
	assert.False(t, h.sess.IsAdmin())
	assert.NotEmpty(t, h.stored(t, storage.KeyAccessToken))
	assert.NotEmpty(t, h.stored(t, storage.KeyRefreshToken))

	n, ok := h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Welcome back!", n.Title)
	assert.Equal(t, notification.VariantSuccess, n.Variant)
}

func TestWrongPasswordPersistsNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.sess.Login(context.Background(), "amina", "wrong")
	assert.ErrorIs(t, err, session.ErrAuthentication)
	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.sess.Token())
	assert.Empty(t, h.state.Keys())

	n, ok := h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Login Failed", n.Title)
	assert.Equal(t, "No active account found with the given credentials", n.Message)
	assert.Equal(t, notification.VariantError, n.Variant)
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	h := newHarness(t)

	_, err := h.sess.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, session.ErrAuthentication)
	assert.Empty(t, h.be.Requests())
	assert.Equal(t, []string{"Login Failed"}, h.rec.Titles())
}

func TestLogoutDropsAuthorizationHeader(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.sess.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)

	_, err = h.client.Orders(ctx)
	require.NoError(t, err)
	req, _ := h.be.LastRequest("GET", api.PathOrders)
	assert.True(t, strings.HasPrefix(req.Header.Get("Authorization"), "Bearer "))

	h.sess.Logout(ctx)
	assert.Equal(t, session.Unauthenticated, h.sess.State())
	_, ok := h.sess.User()
	assert.False(t, ok)
	assert.Empty(t, h.state.Keys())

	_, err = h.client.Orders(ctx)
	assert.True(t, nxhttp.IsUnauthorized(err))
	req, _ = h.be.LastRequest("GET", api.PathOrders)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestInitRestoresSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.sess.Login(ctx, "root", "Admin1234")
	require.NoError(t, err)

	next := reopen(h.be, h.state)
	assert.Equal(t, session.Unauthenticated, next.sess.State())
	next.sess.Init(ctx)

	assert.Equal(t, session.Authenticated, next.sess.State())
	assert.True(t, next.sess.IsAdmin())
	u, ok := next.sess.User()
	require.True(t, ok)
	assert.Equal(t, "root", u.Username)
}

func TestInitWithoutTokenStaysLoggedOut(t *testing.T) {
	h := newHarness(t)
	h.sess.Init(context.Background())
	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.be.Requests())
}

func TestInitRefreshesExpiredToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pair := h.be.IssueTokens("amina")
	expired := h.be.IssueExpired("amina")
	require.NoError(t, h.state.Put(ctx, storage.KeyAccessToken, []byte(expired)))
	require.NoError(t, h.state.Put(ctx, storage.KeyRefreshToken, []byte(pair.Refresh)))

	h.sess.Init(ctx)

	assert.Equal(t, session.Authenticated, h.sess.State())
	_, refreshed := h.be.LastRequest("POST", api.PathTokenRefresh)
	assert.True(t, refreshed)
	assert.NotEqual(t, expired, h.stored(t, storage.KeyAccessToken))
	assert.Equal(t, pair.Refresh, h.stored(t, storage.KeyRefreshToken))
}

func TestInitExpiredWithoutRefreshDiscards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.state.Put(ctx, storage.KeyAccessToken, []byte(h.be.IssueExpired("amina"))))

	h.sess.Init(ctx)

	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.state.Keys())
	assert.Empty(t, h.be.Requests())
}

func TestInitRejectedRefreshDiscards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.state.Put(ctx, storage.KeyAccessToken, []byte(h.be.IssueExpired("amina"))))
	require.NoError(t, h.state.Put(ctx, storage.KeyRefreshToken, []byte("garbage")))

	h.sess.Init(ctx)

	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.state.Keys())
	assert.Empty(t, h.rec.All())
}

func TestInitMalformedTokenDiscards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.state.Put(ctx, storage.KeyAccessToken, []byte("not-a-jwt")))

	h.sess.Init(ctx)

	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.state.Keys())
	assert.Empty(t, h.rec.All())
}

func TestInitUnauthorizedDiscards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.state.Put(ctx, storage.KeyAccessToken, []byte(h.be.IssueTokens("amina").Access)))
	h.be.Fail("GET", api.PathMe, testkit.JSON(401, `{"detail":"User is inactive","code":"user_inactive"}`))

	h.sess.Init(ctx)

	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.state.Keys())
}

func TestInitServerErrorKeepsStoredTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	access := h.be.IssueTokens("amina").Access
	require.NoError(t, h.state.Put(ctx, storage.KeyAccessToken, []byte(access)))
	h.be.Fail("GET", api.PathMe, testkit.JSON(503, `{"detail":"Service unavailable"}`))

	h.sess.Init(ctx)

	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.sess.Token())
	assert.Equal(t, access, h.stored(t, storage.KeyAccessToken))

	h.be.Recover("GET", api.PathMe)
	next := reopen(h.be, h.state)
	next.sess.Init(ctx)
	assert.Equal(t, session.Authenticated, next.sess.State())
}

func TestRegisterLogsIn(t *testing.T) {
	h := newHarness(t)

	u, err := h.sess.Register(context.Background(), models.Registration{
		Username: "wanjiru", Email: "wanjiru@example.com", Password: "Passw0rd1",
	})
	require.NoError(t, err)
	assert.Equal(t, "wanjiru", u.Username)
	assert.Equal(t, session.Authenticated, h.sess.State())
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.sess.Register(context.Background(), models.Registration{
		Username: "wanjiru", Email: "wanjiru@example.com", Password: "password",
	})
	assert.Error(t, err)
	assert.Empty(t, h.be.Requests())
	assert.Equal(t, []string{"Registration failed"}, h.rec.Titles())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h := newHarness(t)

	_, err := h.sess.Register(context.Background(), models.Registration{
		Username: "amina", Email: "amina@example.com", Password: "Passw0rd1",
	})
	assert.Error(t, err)
	n, _ := h.rec.Last()
	assert.Equal(t, "Registration failed", n.Title)
	assert.Equal(t, "username: A user with that username already exists.", n.Message)
	assert.Equal(t, session.Unauthenticated, h.sess.State())
}

func TestRefreshRequiresLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.sess.Refresh(context.Background())
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestConcurrentRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.sess.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.sess.Refresh(ctx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, session.Authenticated, h.sess.State())
}

// heldProfile delays Me until release is closed once hold is set.
type heldProfile struct {
	*api.Client
	mu      sync.Mutex
	hold    bool
	started chan struct{}
	release chan struct{}
	ctxErrs []error
}

func (h *heldProfile) Me(ctx context.Context) (models.User, error) {
	h.mu.Lock()
	hold := h.hold
	h.mu.Unlock()
	if hold {
		select {
		case h.started <- struct{}{}:
		default:
		}
		<-h.release
		h.mu.Lock()
		h.ctxErrs = append(h.ctxErrs, ctx.Err())
		h.mu.Unlock()
	}
	return h.Client.Me(ctx)
}

func TestRefreshSurvivesFirstCallerCancelling(t *testing.T) {
	h := newHarness(t)
	held := &heldProfile{Client: h.client, started: make(chan struct{}, 1), release: make(chan struct{})}
	sess := session.New(held, h.state, h.rec)
	h.client.Transport().SetTokenSource(sess)
	_, err := sess.Login(context.Background(), "amina", "Secret123")
	require.NoError(t, err)

	held.mu.Lock()
	held.hold = true
	held.mu.Unlock()

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := sess.Refresh(first)
		firstErr <- err
	}()
	<-held.started
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	secondErr := make(chan error, 1)
	go func() {
		user, err := sess.Refresh(context.Background())
		if err == nil && user.Username != "amina" {
			err = assert.AnError
		}
		secondErr <- err
	}()
	close(held.release)
	require.NoError(t, <-secondErr)

	held.mu.Lock()
	defer held.mu.Unlock()
	for _, err := range held.ctxErrs {
		assert.NoError(t, err)
	}
	assert.Equal(t, session.Authenticated, sess.State())
}

func TestRefreshRejectedLogsOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.sess.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)
	h.be.Fail("GET", api.PathMe, testkit.JSON(401, `{"detail":"Token expired"}`))

	_, err = h.sess.Refresh(ctx)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Equal(t, session.Unauthenticated, h.sess.State())
	assert.Empty(t, h.state.Keys())
}

func TestUpdateProfileNormalizesPhone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.sess.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)

	u, err := h.sess.UpdateProfile(ctx, models.ProfileUpdate{FirstName: "Amina", Phone: "0712 345 678"})
	require.NoError(t, err)
	assert.Equal(t, "Amina", u.FirstName)
	assert.Equal(t, "0712345678", u.Phone)
	assert.Equal(t, "Profile updated", h.rec.Titles()[len(h.rec.Titles())-1])
}

func TestUpdateProfileRejectsBadPhone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.sess.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)

	_, err = h.sess.UpdateProfile(ctx, models.ProfileUpdate{Phone: "12345"})
	assert.Error(t, err)
	_, patched := h.be.LastRequest("PATCH", api.PathMe)
	assert.False(t, patched)
}

func TestSubscribersSeeTransitions(t *testing.T) {
	h := newHarness(t)
	var states []session.State
	unsubscribe := h.sess.Subscribe(func(s session.Snapshot) { states = append(states, s.State) })

	ctx := context.Background()
	_, err := h.sess.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)
	h.sess.Logout(ctx)
	unsubscribe()
	_, _ = h.sess.Login(ctx, "amina", "Secret123")

	assert.Equal(t, []session.State{session.Authenticating, session.Authenticated, session.Unauthenticated}, states)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unauthenticated", session.Unauthenticated.String())
	assert.Equal(t, "authenticating", session.Authenticating.String())
	assert.Equal(t, "authenticated", session.Authenticated.String())
}
