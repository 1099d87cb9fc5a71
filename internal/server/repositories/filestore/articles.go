package filestore

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

// ArticleRepository implements articles.Repository on a Store.
type ArticleRepository struct {
	s *Store
}

func (r *ArticleRepository) List(ctx context.Context) ([]*models.Article, error) {
	return r.Latest(ctx, -1)
}

// Latest returns at most limit articles; a negative limit means all.
func (r *ArticleRepository) Latest(_ context.Context, limit int) ([]*models.Article, error) {
	r.s.mu.RLock()
	out := make([]*models.Article, 0, len(r.s.articles))
	for _, a := range r.s.articles {
		a := a
		out = append(out, &a)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ArticleRepository) Get(_ context.Context, id int64) (*models.Article, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.articles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *ArticleRepository) Create(_ context.Context, article *models.Article) (*models.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if article.AuthorID != nil {
		if _, ok := r.s.users[*article.AuthorID]; !ok {
			return nil, fmt.Errorf("unknown author %d: %w", *article.AuthorID, common.ErrorNotFound)
		}
	}

	created := *article
	created.ID = r.s.nextArticleID
	created.CreatedAt = r.s.now().UTC().Truncate(timeResolution)
	created.UpdatedAt = created.CreatedAt

	r.s.articles[created.ID] = created
	if err := r.s.saveArticlesLocked(); err != nil {
		delete(r.s.articles, created.ID)
		return nil, err
	}
	r.s.nextArticleID++
	return &created, nil
}

func (r *ArticleRepository) Update(_ context.Context, id int64, patch models.ArticlePatch) (*models.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.articles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	updated := patch.Apply(prev)
	updated.UpdatedAt = models.NextUpdatedAt(prev.UpdatedAt, r.s.now().UTC())

	r.s.articles[id] = updated
	if err := r.s.saveArticlesLocked(); err != nil {
		r.s.articles[id] = prev
		return nil, err
	}
	return &updated, nil
}

func (r *ArticleRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.articles[id]
	if !ok {
		return false, nil
	}
	delete(r.s.articles, id)
	if err := r.s.saveArticlesLocked(); err != nil {
		r.s.articles[id] = prev
		return false, err
	}
	return true, nil
}
