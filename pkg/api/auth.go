package api

import (
	"context"

	"github.com/shashiranjanraj/nexus/app/models"
)

// ObtainToken exchanges credentials for an access/refresh pair.
func (c *Client) ObtainToken(ctx context.Context, creds models.Credentials) (models.Tokens, error) {
	return fetch[models.Tokens](ctx, c.http.Post(PathToken).Anonymous().Body(creds))
}

// RefreshToken trades a refresh token for a new access token. The backend
// may or may not rotate the refresh token; Refresh is empty when it does not.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (models.Tokens, error) {
	body := map[string]string{"refresh": refresh}
	return fetch[models.Tokens](ctx, c.http.Post(PathTokenRefresh).Anonymous().Body(body))
}

// Register creates an account. The created user is not returned; callers
// log in afterwards.
func (c *Client) Register(ctx context.Context, r models.Registration) error {
	_, err := c.http.Post(PathRegister).Anonymous().Body(r).Send(ctx)
	return err
}

// Me fetches the profile of the token holder.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	return fetch[models.User](ctx, c.http.Get(PathMe))
}

// UpdateMe patches the profile.
func (c *Client) UpdateMe(ctx context.Context, p models.ProfileUpdate) (models.User, error) {
	return fetch[models.User](ctx, c.http.Patch(PathMe).Body(p))
}
