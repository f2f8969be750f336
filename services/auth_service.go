package services

import (
	"context"
	"fmt"

	"kitai/models"
	"kitai/utils"
)

// Authenticator resolves a session token to the caller's profile.
type Authenticator struct {
	store SessionStore
}

func NewAuthenticator(store SessionStore) *Authenticator {
	return &Authenticator{store: store}
}

// Resolve returns the caller's profile. It fails with ErrAuthentication when the
// token is missing, unknown or expired, and with ErrNoOrganization when the user
// has no organization.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, ErrAuthentication
	}

	userID, err := a.store.GetSessionUser(ctx, utils.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if userID == "" {
		return nil, ErrAuthentication
	}

	profile, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up profile: %w", err)
	}
	if profile == nil || profile.OrganizationID == "" {
		return nil, ErrNoOrganization
	}
	return profile, nil
}
