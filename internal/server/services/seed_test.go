package services

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdmin(t *testing.T) {
	rm := newFakeRepoManager()
	svc := NewSeedService(rm, plainHasher{}, logging.NewNop())
	ctx := context.Background()

	outcome, err := svc.SeedAdmin(ctx, "AdminPlantarei", "pw", "test")
	require.NoError(t, err)
	assert.Equal(t, SeedCreated, outcome)

	u, err := rm.u.GetByUsername(ctx, "AdminPlantarei")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "pw.salt", u.PasswordDigest)

	outcome, err = svc.SeedAdmin(ctx, "AdminPlantarei", "different", "test")
	require.NoError(t, err)
	assert.Equal(t, SeedExists, outcome)

	u, _ = rm.u.GetByUsername(ctx, "AdminPlantarei")
	assert.Equal(t, "pw.salt", u.PasswordDigest, "existing admin password is untouched")
}

func TestSeedAdmin_RegularUserOwnsName(t *testing.T) {
	rm := newFakeRepoManager()
	_, err := rm.u.Create(context.Background(), &models.User{Username: "boss", PasswordDigest: "x.y"})
	require.NoError(t, err)

	svc := NewSeedService(rm, plainHasher{}, logging.NewNop())
	_, err = svc.SeedAdmin(context.Background(), "boss", "pw", "test")
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestSeedAdmin_Invalid(t *testing.T) {
	svc := NewSeedService(newFakeRepoManager(), plainHasher{}, logging.NewNop())
	_, err := svc.SeedAdmin(context.Background(), "", "pw", "test")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestSeedAdmin_RepoFailure(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.createErr = errors.New("disk full")
	svc := NewSeedService(rm, plainHasher{}, logging.NewNop())

	_, err := svc.SeedAdmin(context.Background(), "root", "pw", "test")
	assert.ErrorContains(t, err, "disk full")
}

func TestSeedSampleArticles(t *testing.T) {
	rm := newFakeRepoManager()
	svc := NewSeedService(rm, plainHasher{}, logging.NewNop())
	ctx := context.Background()

	author := int64(1)
	n, err := svc.SeedSampleArticles(ctx, &author)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, rm.txCalls)

	list, _ := rm.a.List(ctx)
	require.Len(t, list, 3)
	for _, a := range list {
		require.NotNil(t, a.AuthorID)
		assert.Equal(t, author, *a.AuthorID)
	}

	n, err = svc.SeedSampleArticles(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n, "non-empty table is left alone")
}

func TestSeedSampleArticles_Error(t *testing.T) {
	rm := newFakeRepoManager()
	rm.a.listErr = errors.New("db down")
	svc := NewSeedService(rm, plainHasher{}, logging.NewNop())

	_, err := svc.SeedSampleArticles(context.Background(), nil)
	assert.ErrorContains(t, err, "seed sample articles")
}

func TestSampleArticles_PassValidation(t *testing.T) {
	for _, in := range SampleArticles() {
		assert.LessOrEqual(t, utf8.RuneCountInString(in.Title), MaxTitleLen)
		assert.LessOrEqual(t, utf8.RuneCountInString(in.Subtitle), MaxSubtitleLen)
		assert.LessOrEqual(t, utf8.RuneCountInString(in.Description), MaxDescriptionLen)

		verr := &common.ValidationError{}
		checkURL(verr, "imageUrl", in.ImageURL)
		assert.NoError(t, verr.OrNil())
	}
}
