package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/cryptox"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/repomanager"
)

// Seed outcomes recorded in the audit log.
const (
	SeedCreated = "created"
	SeedExists  = "exists"
)

// SeedService provisions the admin account and the sample articles. It is
// the only code path that creates admins.
type SeedService struct {
	repos  repomanager.RepositoryManager
	hasher cryptox.PasswordHasher
	log    logging.Logger
}

func NewSeedService(repos repomanager.RepositoryManager, hasher cryptox.PasswordHasher, log logging.Logger) *SeedService {
	return &SeedService{repos: repos, hasher: hasher, log: log.With("module", "seed")}
}

// SeedAdmin creates username as an admin unless it already exists. It
// returns SeedCreated or SeedExists; a non-admin owning the name is an
// ErrorConflict. source names the trigger (config, cli) for the audit trail.
func (s *SeedService) SeedAdmin(ctx context.Context, username, password, source string) (string, error) {
	audit := s.log.With("audit", true, "action", "seed_admin", "username", username, "source", source)

	if username == "" || password == "" {
		err := &common.ValidationError{}
		err.Add("admin", "username and password are required")
		audit.Warn(ctx, "admin seed rejected", "outcome", "invalid")
		return "", err
	}

	existing, err := s.repos.Users().GetByUsername(ctx, username)
	switch {
	case err == nil && existing.IsAdmin:
		audit.Info(ctx, "admin already present", "outcome", SeedExists, "user_id", existing.ID)
		return SeedExists, nil
	case err == nil:
		audit.Warn(ctx, "admin seed refused: name owned by regular user", "outcome", "conflict", "user_id", existing.ID)
		return "", fmt.Errorf("user %q exists and is not an admin: %w", username, common.ErrorConflict)
	case !errors.Is(err, common.ErrorNotFound):
		audit.Error(ctx, "admin seed failed", "outcome", "error", "error", err)
		return "", fmt.Errorf("lookup user: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repos.Users().Create(ctx, &models.User{Username: username, PasswordDigest: digest, IsAdmin: true})
	if err != nil {
		audit.Error(ctx, "admin seed failed", "outcome", "error", "error", err)
		return "", fmt.Errorf("create admin: %w", err)
	}

	audit.Info(ctx, "admin created", "outcome", SeedCreated, "user_id", user.ID)
	return SeedCreated, nil
}

// SeedSampleArticles inserts the demo articles when there are none and
// returns how many were added. authorID may be nil.
func (s *SeedService) SeedSampleArticles(ctx context.Context, authorID *int64) (int, error) {
	var added int
	err := s.repos.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		existing, err := repos.Articles().Latest(ctx, 1)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for _, in := range SampleArticles() {
			if _, err := repos.Articles().Create(ctx, &models.Article{
				Title:       in.Title,
				Subtitle:    in.Subtitle,
				Description: in.Description,
				ImageURL:    in.ImageURL,
				AuthorID:    authorID,
			}); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed sample articles: %w", err)
	}
	if added > 0 {
		s.log.Info(ctx, "sample articles seeded", "count", added)
	}
	return added, nil
}

// SampleArticles returns the demo content shipped with a fresh install.
func SampleArticles() []models.ArticleInput {
	return []models.ArticleInput{
		{
			Title:       "Tecniche di irrigazione sostenibile per risparmiare acqua",
			Subtitle:    "Risparmio idrico in agricoltura",
			Description: "Scopri le moderne tecniche di irrigazione che permettono di ottimizzare l'uso dell'acqua mantenendo elevata la produttività delle colture. L'irrigazione a goccia, l'irrigazione per aspersione e altri metodi innovativi stanno trasformando il modo in cui gestiamo l'acqua nei campi.",
			ImageURL:    "https://images.unsplash.com/photo-1523348837708-15d4a09cfac2?ixlib=rb-4.0.3&ixid=MnwxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8&auto=format&fit=crop&w=1470&q=80",
		},
		{
			Title:       "Guida alla corretta fertilizzazione del terreno",
			Subtitle:    "Nutrire il suolo per colture sane",
			Description: "Una fertilizzazione equilibrata è fondamentale per la salute delle piante. Ecco come pianificare un programma efficace per il tuo terreno, considerando i macro e micronutrienti necessari per ogni tipo di coltura e fase di crescita.",
			ImageURL:    "https://images.unsplash.com/photo-1574943320219-5c1e677f23e9?ixlib=rb-4.0.3&ixid=MnwxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8&auto=format&fit=crop&w=1472&q=80",
		},
		{
			Title:       "Agricoltura di precisione: tecnologie e vantaggi",
			Subtitle:    "Il futuro dell'agricoltura è digitale",
			Description: "L'agricoltura di precisione permette di ottimizzare gli interventi in campo. Ecco le tecnologie disponibili e i benefici economici e ambientali che possono portare alla tua azienda agricola, dal risparmio di input alla maggiore sostenibilità.",
			ImageURL:    "https://images.unsplash.com/photo-1625246333195-78d9c38ad449?ixlib=rb-4.0.3&ixid=MnwxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8&auto=format&fit=crop&w=1470&q=80",
		},
	}
}
