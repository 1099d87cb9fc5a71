package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/articles"
)

const DefaultLatestLimit = 5

// Field limits, counted in Unicode code points.
const (
	MaxTitleLen       = 100
	MaxSubtitleLen    = 200
	MaxDescriptionLen = 500
)

type ArticleService struct {
	repo articles.Repository
	log  logging.Logger
}

func NewArticleService(repo articles.Repository, log logging.Logger) *ArticleService {
	return &ArticleService{repo: repo, log: log.With("module", "articles")}
}

func (s *ArticleService) List(ctx context.Context) ([]*models.Article, error) {
	return s.repo.List(ctx)
}

// Latest returns up to limit newest articles; limit <= 0 means DefaultLatestLimit.
func (s *ArticleService) Latest(ctx context.Context, limit int) ([]*models.Article, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return s.repo.Latest(ctx, limit)
}

func (s *ArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	return s.repo.Get(ctx, id)
}

// Create validates in and stores it. An empty content is stored as null.
func (s *ArticleService) Create(ctx context.Context, in models.ArticleInput, authorID *int64) (*models.Article, error) {
	verr := &common.ValidationError{}
	checkLen(verr, "title", in.Title, MaxTitleLen)
	checkLen(verr, "subtitle", in.Subtitle, MaxSubtitleLen)
	checkLen(verr, "description", in.Description, MaxDescriptionLen)
	checkURL(verr, "imageUrl", in.ImageURL)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	content := in.Content
	if content != nil && *content == "" {
		content = nil
	}

	a, err := s.repo.Create(ctx, &models.Article{
		Title:       in.Title,
		Subtitle:    in.Subtitle,
		Description: in.Description,
		Content:     content,
		ImageURL:    in.ImageURL,
		AuthorID:    authorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.log.Info(ctx, "article created", "id", a.ID)
	return a, nil
}

// Update applies the fields present in patch. Absence is reported before
// validation so a bad patch on a missing id yields ErrorNotFound.
func (s *ArticleService) Update(ctx context.Context, id int64, patch models.ArticlePatch) (*models.Article, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	verr := &common.ValidationError{}
	checkPatchLen(verr, "title", patch.Title, MaxTitleLen)
	checkPatchLen(verr, "subtitle", patch.Subtitle, MaxSubtitleLen)
	checkPatchLen(verr, "description", patch.Description, MaxDescriptionLen)
	switch {
	case patch.ImageURL.Null:
		verr.Add("imageUrl", "imageUrl must not be null")
	case patch.ImageURL.Set:
		checkURL(verr, "imageUrl", patch.ImageURL.Value)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	a, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update article: %w", err)
	}

	s.log.Info(ctx, "article updated", "id", id)
	return a, nil
}

// Delete removes the article or returns ErrorNotFound.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	s.log.Info(ctx, "article deleted", "id", id)
	return nil
}

func checkLen(verr *common.ValidationError, field, value string, limit int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		verr.Add(field, field+" is required")
	case n > limit:
		verr.Add(field, fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
}

func checkPatchLen(verr *common.ValidationError, field string, value models.Optional[string], limit int) {
	switch {
	case value.Null:
		verr.Add(field, field+" must not be null")
	case value.Set:
		checkLen(verr, field, value.Value, limit)
	}
}

func checkURL(verr *common.ValidationError, field, value string) {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		verr.Add(field, "must be a valid URL")
	}
}
