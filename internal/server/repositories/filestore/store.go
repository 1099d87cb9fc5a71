// Package filestore is the file-backed storage gateway. Users and articles
// live in memory and every mutation rewrites the owning JSON file atomically.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/filex"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

const (
	UsersFile    = "users.json"
	ArticlesFile = "articles.json"

	filePerm = 0o600

	timeResolution = time.Microsecond
)

// userRecord is the on-disk user shape. Unlike models.User it keeps the
// password digest.
type userRecord struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Store holds both collections behind one lock.
type Store struct {
	dir string
	now func() time.Time

	mu            sync.RWMutex
	users         map[int64]models.User
	articles      map[int64]models.Article
	nextUserID    int64
	nextArticleID int64
}

// Open creates dir if needed and loads any existing files. Missing files are
// treated as empty collections; unreadable ones are an error.
func Open(dir string) (*Store, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:      abs,
		now:      time.Now,
		users:    make(map[int64]models.User),
		articles: make(map[int64]models.Article),
	}

	var users map[string]userRecord
	if err := readJSON(filepath.Join(abs, UsersFile), &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		s.users[u.ID] = models.User{ID: u.ID, Username: u.Username, PasswordDigest: u.Password, IsAdmin: u.IsAdmin}
	}

	var articles map[string]models.Article
	if err := readJSON(filepath.Join(abs, ArticlesFile), &articles); err != nil {
		return nil, err
	}
	for _, a := range articles {
		s.articles[a.ID] = a
	}

	s.nextUserID = nextID(s.users)
	s.nextArticleID = nextID(s.articles)
	return s, nil
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) Articles() *ArticleRepository { return &ArticleRepository{s: s} }

func nextID[V any](m map[int64]V) int64 {
	var maxID int64
	for id := range m {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// saveUsersLocked and saveArticlesLocked must be called with mu held for writing.
func (s *Store) saveUsersLocked() error {
	out := make(map[string]userRecord, len(s.users))
	for id, u := range s.users {
		out[strconv.FormatInt(id, 10)] = userRecord{ID: u.ID, Username: u.Username, Password: u.PasswordDigest, IsAdmin: u.IsAdmin}
	}
	return s.write(UsersFile, out)
}

func (s *Store) saveArticlesLocked() error {
	out := make(map[string]models.Article, len(s.articles))
	for id, a := range s.articles {
		out[strconv.FormatInt(id, 10)] = a
	}
	return s.write(ArticlesFile, out)
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := filex.WriteFileAtomic(filepath.Join(s.dir, name), data, filePerm); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}
