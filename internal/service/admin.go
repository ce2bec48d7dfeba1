package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"docfiling/internal/apperr"
	"docfiling/internal/config"
	"docfiling/internal/model"
	"docfiling/internal/policy"
	"docfiling/internal/repository"
)

// AdminService manages the admin roster and answers role lookups. Lookups
// are cached for AdminCacheTTL, so roster changes made elsewhere become
// visible after at most that long.
type AdminService interface {
	// IsAdmin reports whether username is on the roster.
	IsAdmin(ctx context.Context, username string) (bool, error)
	// Purge drops every cached lookup.
	Purge()
	List(ctx context.Context, actor model.Actor) ([]model.Admin, error)
	Create(ctx context.Context, username, fullName string, actor model.Actor) (*model.Admin, error)
	Delete(ctx context.Context, username string, actor model.Actor) error
	// Seed ensures every listed username is on the roster.
	Seed(ctx context.Context, usernames []string) error
}

type adminService struct {
	repo  repository.AdminRepository
	cache *expirable.LRU[string, bool]
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewAdminService(repo repository.AdminRepository, cfg config.AuthConfig, log logrus.FieldLogger) AdminService {
	return &adminService{
		repo:  repo,
		cache: expirable.NewLRU[string, bool](cfg.AdminCacheSize, nil, cfg.AdminCacheTTL),
		log:   log.WithField("component", "admins"),
		now:   time.Now,
	}
}

func (s *adminService) IsAdmin(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}
	if ok, hit := s.cache.Get(username); hit {
		return ok, nil
	}
	ok, err := s.repo.Exists(ctx, username)
	if err != nil {
		return false, err
	}
	s.cache.Add(username, ok)
	return ok, nil
}

func (s *adminService) Purge() {
	s.cache.Purge()
}

func (s *adminService) List(ctx context.Context, actor model.Actor) ([]model.Admin, error) {
	if err := policy.RequireAdmin(actor, "list admins"); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *adminService) Create(ctx context.Context, username, fullName string, actor model.Actor) (*model.Admin, error) {
	if err := policy.RequireAdmin(actor, "add admins"); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "username is required")
	}
	admin, err := s.repo.Create(ctx, &model.Admin{
		ID:          uuid.NewString(),
		Username:    username,
		FullName:    strings.TrimSpace(fullName),
		CreatedDate: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.cache.Remove(username)
	s.log.WithFields(logrus.Fields{"username": username, "added_by": actor.Username}).Info("admin_added")
	return admin, nil
}

func (s *adminService) Delete(ctx context.Context, username string, actor model.Actor) error {
	if err := policy.RequireAdmin(actor, "remove admins"); err != nil {
		return err
	}
	if username == actor.Username {
		return apperr.New(apperr.KindInvalidInput, "admins cannot remove themselves")
	}
	if err := s.repo.Delete(ctx, username); err != nil {
		return err
	}
	s.cache.Remove(username)
	s.log.WithFields(logrus.Fields{"username": username, "removed_by": actor.Username}).Info("admin_removed")
	return nil
}

func (s *adminService) Seed(ctx context.Context, usernames []string) error {
	now := s.now().UTC()
	admins := make([]model.Admin, 0, len(usernames))
	for _, u := range dedupeTrimmed(usernames) {
		admins = append(admins, model.Admin{ID: uuid.NewString(), Username: u, CreatedDate: now})
	}
	if len(admins) == 0 {
		return nil
	}
	if _, err := s.repo.UpsertMany(ctx, admins); err != nil {
		return err
	}
	s.Purge()
	return nil
}

// dedupeTrimmed trims values, dropping blanks and repeats while keeping order.
func dedupeTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
