package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/metrics"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/go-chi/chi/v5"
)

func (a *API) handleListArticles(w http.ResponseWriter, r *http.Request) {
	list, err := a.articles.List(r.Context())
	if err != nil {
		writeError(w, r, a.log, err, "Failed to fetch articles")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleLatestArticles passes a missing or unparsable limit as 0, which the
// service replaces with its default.
func (a *API) handleLatestArticles(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 0
	}
	list, err := a.articles.Latest(r.Context(), limit)
	if err != nil {
		writeError(w, r, a.log, err, "Failed to fetch latest articles")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	article, err := a.articles.Get(r.Context(), id)
	if err != nil {
		a.writeArticleError(w, r, err, "Failed to fetch article")
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (a *API) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var in models.ArticleInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var authorID *int64
	if u := UserFromContext(r.Context()); u != nil {
		id := u.ID
		authorID = &id
	}

	article, err := a.articles.Create(r.Context(), in, authorID)
	if err != nil {
		metrics.ObserveArticleMutation("create", "failure")
		a.writeArticleError(w, r, err, "Failed to create article")
		return
	}
	metrics.ObserveArticleMutation("create", "success")
	writeJSON(w, http.StatusCreated, article)
}

func (a *API) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	var patch models.ArticlePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	article, err := a.articles.Update(r.Context(), id, patch)
	if err != nil {
		metrics.ObserveArticleMutation("update", "failure")
		a.writeArticleError(w, r, err, "Failed to update article")
		return
	}
	metrics.ObserveArticleMutation("update", "success")
	writeJSON(w, http.StatusOK, article)
}

func (a *API) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	if err := a.articles.Delete(r.Context(), id); err != nil {
		metrics.ObserveArticleMutation("delete", "failure")
		a.writeArticleError(w, r, err, "Failed to delete article")
		return
	}
	metrics.ObserveArticleMutation("delete", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeArticleError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid article data", Errors: verr.Fields})
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "Article not found")
	default:
		writeError(w, r, a.log, err, fallback)
	}
}

func articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid article ID")
		return 0, false
	}
	return id, true
}
