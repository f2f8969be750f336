package services

import (
	"context"
	"fmt"
	"time"

	"kitai/content"
	"kitai/models"
)

// OrganizationStore loads tenant records.
type OrganizationStore interface {
	GetOrganization(ctx context.Context, organizationID string) (*models.Organization, error)
}

// OrganizationDocuments fetches posts from the source configured on the organization.
type OrganizationDocuments struct {
	orgs OrganizationStore
	opts content.Options
}

func NewOrganizationDocuments(orgs OrganizationStore, opts content.Options) *OrganizationDocuments {
	return &OrganizationDocuments{orgs: orgs, opts: opts}
}

func (d *OrganizationDocuments) FetchDocuments(ctx context.Context, organizationID string, from, to time.Time) ([]models.SourceDocument, error) {
	org, err := d.orgs.GetOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("loading organization: %w", err)
	}
	src, err := content.ForOrganization(org, d.opts)
	if err != nil {
		return nil, err
	}
	return src.ListPosts(ctx, from, to)
}

// PostService lists the caller's organization posts for the editor preview.
type PostService struct {
	auth *Authenticator
	docs DocumentSource
}

func NewPostService(sessions SessionStore, docs DocumentSource) *PostService {
	return &PostService{auth: NewAuthenticator(sessions), docs: docs}
}

// List returns the posts published within [from, to]. Errors from the source
// are wrapped in ErrContentSource.
func (s *PostService) List(ctx context.Context, token string, from, to time.Time) ([]models.SourceDocument, error) {
	profile, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.FetchDocuments(ctx, profile.OrganizationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentSource, err)
	}
	if docs == nil {
		docs = []models.SourceDocument{}
	}
	return docs, nil
}
