package users

import (
	"context"
	"errors"
	"sort"

	"backend-ticketing/internal/config"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/store"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// The two accounts seeded on first run. Passwords are overridable via env
// but default to the documented values; see DESIGN.md on plaintext
// storage.
const (
	DefaultPMUsername    = "pmadmin"
	DefaultSuperUsername = "superadmin"
)

type Store struct {
	s *store.Store
}

func New(s *store.Store) *Store {
	return &Store{s: s}
}

func (u *Store) save(ctx context.Context, user models.User) error {
	key := store.UserKey(user.Username)
	if err := u.s.R.HSet(ctx, key, map[string]interface{}{
		"password": user.Password,
		"role":     user.Role,
	}).Err(); err != nil {
		return err
	}
	return u.s.R.SAdd(ctx, store.KeyUsersList, user.Username).Err()
}

// EnsureDefaults seeds the two default accounts exactly once, guarded by
// the initialization flag so later edits to them survive restarts.
func (u *Store) EnsureDefaults(ctx context.Context) error {
	initialized, err := u.s.R.Get(ctx, store.KeyUsersInitialized).Result()
	if err == nil && initialized == "true" {
		return nil
	}

	defaults := []models.User{
		{
			Username: DefaultPMUsername,
			Password: config.GetEnv("DEFAULT_PM_PASSWORD", "Bailey"),
			Role:     models.RolePM,
		},
		{
			Username: DefaultSuperUsername,
			Password: config.GetEnv("DEFAULT_SUPER_PASSWORD", "Eunice"),
			Role:     models.RoleSuper,
		},
	}
	for _, user := range defaults {
		if err := u.save(ctx, user); err != nil {
			return err
		}
	}
	return u.s.R.Set(ctx, store.KeyUsersInitialized, "true", 0).Err()
}

func (u *Store) Get(ctx context.Context, username string) (models.User, error) {
	if err := u.EnsureDefaults(ctx); err != nil {
		return models.User{}, err
	}

	data, err := u.s.R.HGetAll(ctx, store.UserKey(username)).Result()
	if err != nil {
		return models.User{}, err
	}
	if data["password"] == "" || data["role"] == "" {
		return models.User{}, ErrNotFound
	}
	return models.User{
		Username: username,
		Password: data["password"],
		Role:     data["role"],
	}, nil
}

// List returns username and role for every known account, sorted by
// username. Hashes missing a role are skipped.
func (u *Store) List(ctx context.Context) ([]models.UserInfo, error) {
	if err := u.EnsureDefaults(ctx); err != nil {
		return nil, err
	}

	usernames, err := u.s.R.SMembers(ctx, store.KeyUsersList).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(usernames)

	infos := make([]models.UserInfo, 0, len(usernames))
	for _, username := range usernames {
		role, err := u.s.R.HGet(ctx, store.UserKey(username), "role").Result()
		if err != nil || role == "" {
			continue
		}
		infos = append(infos, models.UserInfo{Username: username, Role: role})
	}
	return infos, nil
}

// CreateOrUpdate is an upsert; the caller validates the role.
func (u *Store) CreateOrUpdate(ctx context.Context, user models.User) (models.UserInfo, error) {
	if err := u.EnsureDefaults(ctx); err != nil {
		return models.UserInfo{}, err
	}
	if err := u.save(ctx, user); err != nil {
		return models.UserInfo{}, err
	}
	return models.UserInfo{Username: user.Username, Role: user.Role}, nil
}

func (u *Store) Delete(ctx context.Context, username string) error {
	if err := u.EnsureDefaults(ctx); err != nil {
		return err
	}
	if err := u.s.R.Del(ctx, store.UserKey(username)).Err(); err != nil {
		return err
	}
	return u.s.R.SRem(ctx, store.KeyUsersList, username).Err()
}

// Verify checks the presented credentials with a plaintext comparison,
// matching the stored contract exactly.
func (u *Store) Verify(ctx context.Context, username, password string) (models.UserInfo, error) {
	user, err := u.Get(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.UserInfo{}, ErrInvalidCredentials
		}
		return models.UserInfo{}, err
	}
	if user.Password != password {
		return models.UserInfo{}, ErrInvalidCredentials
	}
	return models.UserInfo{Username: user.Username, Role: user.Role}, nil
}
