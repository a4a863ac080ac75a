package auth

import (
	"context"
	"sync"
	"time"
)

type mockRepository struct {
	users        map[string]*User
	usersByPhone map[string]*User
	mu           sync.Mutex
	nextID       uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:        make(map[string]*User),
		usersByPhone: make(map[string]*User),
		nextID:       1,
	}
}

func (r *mockRepository) CreateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return ErrUsernameTaken
	}
	if _, exists := r.usersByPhone[user.Phone]; exists {
		return ErrPhoneTaken
	}

	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++

	r.users[user.Username] = user
	r.usersByPhone[user.Phone] = user
	return nil
}

func (r *mockRepository) GetUserByID(_ context.Context, id uint) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByID(id)
}

func (r *mockRepository) GetUserByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *mockRepository) GetUserByPhone(_ context.Context, phone string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.usersByPhone[phone]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *mockRepository) ListUsers(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *mockRepository) UpdateUser(_ context.Context, id uint, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.findByID(id)
	if err != nil {
		return err
	}

	for key, value := range fields {
		switch key {
		case "is_active":
			user.IsActive = value.(bool)
		case "is_banned":
			user.IsBanned = value.(bool)
		case "role":
			user.Role = value.(Role)
		case "name":
			user.Name = value.(string)
		}
	}
	return nil
}

func (r *mockRepository) DeleteUser(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.findByID(id)
	if err != nil {
		return err
	}
	delete(r.users, user.Username)
	delete(r.usersByPhone, user.Phone)
	return nil
}

func (r *mockRepository) RecordFailedLogin(_ context.Context, id uint, threshold int, lockFor time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.findByID(id)
	if err != nil {
		return 0, err
	}

	user.LoginAttempts++
	if user.LoginAttempts >= threshold {
		lockUntil := time.Now().Add(lockFor)
		user.LockUntil = &lockUntil
	}
	return user.LoginAttempts, nil
}

func (r *mockRepository) ResetLoginAttempts(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.findByID(id)
	if err != nil {
		return err
	}

	now := time.Now()
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now
	return nil
}

func (r *mockRepository) findByID(id uint) (*User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}
