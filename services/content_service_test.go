package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitai/content"
	"kitai/models"
)

type fakeOrganizations struct {
	orgs map[string]*models.Organization
}

func (f fakeOrganizations) GetOrganization(_ context.Context, id string) (*models.Organization, error) {
	if org, ok := f.orgs[id]; ok {
		return org, nil
	}
	return nil, errors.New("organization not found")
}

func TestPostServiceList(t *testing.T) {
	svc := NewPostService(newFakeSessions(), &fakeDocuments{docs: makeDocs(3)})

	docs, err := svc.List(context.Background(), "valid-token", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	_, err = svc.List(context.Background(), "", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestPostServiceEmptyListIsNotNil(t *testing.T) {
	docs, err := NewPostService(newFakeSessions(), &fakeDocuments{}).List(context.Background(), "valid-token", time.Now(), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestOrganizationDocumentsWithoutSource(t *testing.T) {
	src := NewOrganizationDocuments(fakeOrganizations{orgs: map[string]*models.Organization{
		"org-1": {ID: "org-1", Name: "Sin fuente"},
	}}, content.Options{})

	_, err := src.FetchDocuments(context.Background(), "org-1", time.Now(), time.Now())
	assert.ErrorIs(t, err, content.ErrNoSource)

	_, err = src.FetchDocuments(context.Background(), "org-x", time.Now(), time.Now())
	assert.ErrorContains(t, err, "loading organization")
}

func TestFailedResultCarriesEnvelopeCode(t *testing.T) {
	f := newResumeFixture(nil)
	result, err := f.svc.Generate(context.Background(), "valid-token", models.ResumeRequest{Provider: "openai", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.CodeNoDocuments, result.Code)
}
