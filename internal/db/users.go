package db

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tgienger/todo/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// PasswordStorage selects how Register stores new passwords
type PasswordStorage string

const (
	// PasswordPlain stores passwords verbatim
	PasswordPlain PasswordStorage = "plain"
	// PasswordBcrypt stores bcrypt hashes
	PasswordBcrypt PasswordStorage = "bcrypt"
)

// AccountStore keeps user records in users.json
type AccountStore struct {
	mu         sync.Mutex
	file       jsonFile
	storage    PasswordStorage
	bcryptCost int
	logger     *log.Logger
}

func (s *AccountStore) load() ([]models.User, error) {
	var users []models.User
	if err := s.file.read(&users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *AccountStore) save(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	if err := s.file.write(users); err != nil {
		s.logger.Error("persist users", "path", s.file.path, "err", err)
		return err
	}
	return nil
}

func indexOfUser(users []models.User, username string) int {
	return slices.IndexFunc(users, func(u models.User) bool { return u.Username == username })
}

// Register creates an account. Usernames are case-sensitive and unique.
func (s *AccountStore) Register(username, password string) (*models.User, error) {
	user, err := models.NewUser(username, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	if indexOfUser(users, user.Username) >= 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateUser, user.Username)
	}

	if s.storage == PasswordBcrypt {
		hash, err := hashPassword(user.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.Password = hash
		user.Hashed = true
	}

	users = append(users, *user)
	if err := s.save(users); err != nil {
		return nil, err
	}

	s.logger.Debug("user registered", "username", user.Username, "storage", s.storage)
	return user, nil
}

// Authenticate returns the user whose username and password both match.
// Any mismatch, including an unknown user, is ErrInvalidCredentials.
func (s *AccountStore) Authenticate(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	i := indexOfUser(users, username)
	if i < 0 || username == "" || !passwordMatches(users[i], password) {
		s.logger.Debug("login rejected", "username", username)
		return nil, models.ErrInvalidCredentials
	}
	user := users[i]
	return &user, nil
}

// Exists reports whether username is registered
func (s *AccountStore) Exists(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}
	return indexOfUser(users, username) >= 0, nil
}

// Count returns the number of registered users
func (s *AccountStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// Usernames lists users in registration order
func (s *AccountStore) Usernames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names, nil
}

// Delete removes an account after checking its password. Callers that
// also own the user's tasks should go through DB.DeleteAccount.
func (s *AccountStore) Delete(username, password string) error {
	username = strings.TrimSpace(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	i := indexOfUser(users, username)
	if i < 0 || !passwordMatches(users[i], password) {
		return models.ErrInvalidCredentials
	}
	users = slices.Delete(users, i, i+1)
	if err := s.save(users); err != nil {
		return err
	}
	s.logger.Debug("user deleted", "username", username)
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %w", models.ErrInvalidInput, err)
	}
	return string(hash), nil
}

// passwordMatches compares the way the record says its password was stored
func passwordMatches(u models.User, given string) bool {
	if u.Hashed {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(given)) == nil
	}
	return u.Password == given
}
