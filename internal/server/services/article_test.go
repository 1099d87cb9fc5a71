package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validInput() models.ArticleInput {
	return models.ArticleInput{
		Title:       "Irrigazione",
		Subtitle:    "Risparmio idrico",
		Description: "Tecniche moderne",
		ImageURL:    "https://images.example.com/a.jpg",
	}
}

func newArticleService() (*ArticleService, *fakeArticlesRepo) {
	repo := newFakeArticlesRepo()
	return NewArticleService(repo, logging.NewNop()), repo
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestArticleCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ArticleInput)
		fields []string
	}{
		{name: "valid", mutate: func(*models.ArticleInput) {}},
		{name: "title at limit", mutate: func(in *models.ArticleInput) { in.Title = strings.Repeat("a", 100) }},
		{name: "title over limit", mutate: func(in *models.ArticleInput) { in.Title = strings.Repeat("a", 101) }, fields: []string{"title"}},
		{name: "multibyte counts as one", mutate: func(in *models.ArticleInput) { in.Title = strings.Repeat("è", 100) }},
		{name: "empty title", mutate: func(in *models.ArticleInput) { in.Title = "" }, fields: []string{"title"}},
		{name: "subtitle over limit", mutate: func(in *models.ArticleInput) { in.Subtitle = strings.Repeat("s", 201) }, fields: []string{"subtitle"}},
		{name: "description over limit", mutate: func(in *models.ArticleInput) { in.Description = strings.Repeat("d", 501) }, fields: []string{"description"}},
		{name: "relative url", mutate: func(in *models.ArticleInput) { in.ImageURL = "/img/a.jpg" }, fields: []string{"imageUrl"}},
		{name: "not a url", mutate: func(in *models.ArticleInput) { in.ImageURL = "not-a-url" }, fields: []string{"imageUrl"}},
		{name: "several at once", mutate: func(in *models.ArticleInput) {
			in.Title = ""
			in.ImageURL = ""
		}, fields: []string{"title", "imageUrl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newArticleService()
			in := validInput()
			tt.mutate(&in)

			a, err := svc.Create(context.Background(), in, ptr(int64(1)))
			if tt.fields == nil {
				require.NoError(t, err)
				assert.Equal(t, in.Title, a.Title)
				return
			}
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Equal(t, tt.fields, fieldsOf(t, err))
			assert.Zero(t, repo.createCalls)
		})
	}
}

func TestArticleCreate_ContentNormalised(t *testing.T) {
	svc, _ := newArticleService()

	in := validInput()
	in.Content = ptr("")
	a, err := svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Nil(t, a.Content)
	assert.Nil(t, a.AuthorID)

	in.Content = ptr("<p>ciao</p>")
	a, err = svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>ciao</p>", *a.Content)
}

func TestArticleUpdate(t *testing.T) {
	svc, repo := newArticleService()
	ctx := context.Background()

	in := validInput()
	in.Content = ptr("<p>body</p>")
	created, err := svc.Create(ctx, in, nil)
	require.NoError(t, err)

	t.Run("partial", func(t *testing.T) {
		up, err := svc.Update(ctx, created.ID, models.ArticlePatch{Title: models.Some("Nuovo")})
		require.NoError(t, err)
		assert.Equal(t, "Nuovo", up.Title)
		assert.Equal(t, created.Subtitle, up.Subtitle)
		assert.Equal(t, created.CreatedAt, up.CreatedAt)
		assert.True(t, up.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("empty content clears", func(t *testing.T) {
		up, err := svc.Update(ctx, created.ID, models.ArticlePatch{Content: models.Some("")})
		require.NoError(t, err)
		assert.Nil(t, up.Content)
	})

	t.Run("null content clears", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID, models.ArticlePatch{Content: models.Some("<p>again</p>")})
		require.NoError(t, err)

		up, err := svc.Update(ctx, created.ID, models.ArticlePatch{Content: models.Null[string]()})
		require.NoError(t, err)
		assert.Nil(t, up.Content)
	})

	t.Run("null required fields rejected", func(t *testing.T) {
		calls := repo.updateCalls
		_, err := svc.Update(ctx, created.ID, models.ArticlePatch{
			Title:    models.Null[string](),
			ImageURL: models.Null[string](),
		})
		assert.ElementsMatch(t, []string{"title", "imageUrl"}, fieldsOf(t, err))
		assert.Equal(t, calls, repo.updateCalls)
	})

	t.Run("invalid patch", func(t *testing.T) {
		calls := repo.updateCalls
		_, err := svc.Update(ctx, created.ID, models.ArticlePatch{ImageURL: models.Some("nope")})
		assert.Equal(t, []string{"imageUrl"}, fieldsOf(t, err))
		assert.Equal(t, calls, repo.updateCalls)
	})

	t.Run("missing beats invalid", func(t *testing.T) {
		_, err := svc.Update(ctx, 999, models.ArticlePatch{Title: models.Some("")})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestArticleDelete(t *testing.T) {
	svc, repo := newArticleService()
	ctx := context.Background()

	a, err := svc.Create(ctx, validInput(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), common.ErrorNotFound)

	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	repo.deleteErr = errors.New("db down")
	err = svc.Delete(ctx, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestArticleLatest(t *testing.T) {
	svc, _ := newArticleService()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.Create(ctx, validInput(), nil)
		require.NoError(t, err)
	}

	got, err := svc.Latest(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultLatestLimit)

	got, err = svc.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(7), got[0].ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestArticleList_Empty(t *testing.T) {
	svc, _ := newArticleService()
	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
