package app_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/app"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/session"
	"github.com/shashiranjanraj/nexus/pkg/storage"
	"github.com/shashiranjanraj/nexus/pkg/testkit"
)

func TestSecondProcessPicksUpLoginAndCart(t *testing.T) {
	ctx := context.Background()
	be := testkit.NewBackend(t)
	be.AddUser("amina", "Secret123", false)
	lamp := be.AddProduct(models.Product{Name: "Brass Lamp", Price: decimal.NewFromInt(1500), Stock: 3})
	state := storage.NewMemory()

	first, err := app.New(ctx, app.WithBaseURL(be.URL()), app.WithState(state), app.WithNotifier(notification.Discard))
	require.NoError(t, err)
	first.Boot(ctx)
	assert.Equal(t, session.Unauthenticated, first.Session.State())

	_, err = first.Session.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)
	first.Cart.AddProduct(ctx, lamp, 2)

	rec := &notification.Recorder{}
	second, err := app.New(ctx, app.WithBaseURL(be.URL()), app.WithState(state), app.WithNotifier(rec))
	require.NoError(t, err)
	second.Boot(ctx)

	assert.Equal(t, session.Authenticated, second.Session.State())
	assert.Equal(t, 2, second.Cart.Count())
	assert.True(t, second.Cart.Total().Equal(decimal.NewFromInt(3000)))
	assert.Empty(t, rec.All())
	require.NoError(t, second.Close())
}

func TestAuthSchemeOption(t *testing.T) {
	ctx := context.Background()
	be := testkit.NewBackend(t)
	be.Scheme = "JWT"
	be.AddUser("amina", "Secret123", false)

	a, err := app.New(ctx,
		app.WithBaseURL(be.URL()),
		app.WithAuthScheme("JWT"),
		app.WithState(storage.NewMemory()),
		app.WithNotifier(notification.Discard),
	)
	require.NoError(t, err)

	_, err = a.Session.Login(ctx, "amina", "Secret123")
	require.NoError(t, err)
	req, ok := be.LastRequest("GET", "/api/auth/users/me/")
	require.True(t, ok)
	assert.Contains(t, req.Header.Get("Authorization"), "JWT ")
}
