//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	"bufio"
	"chat-relay/auth"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

const passwordSuffix = ".password"

// IAccountRepository is the broker's account table.
// Accounts are fixed at start-up; only presence and address change afterwards.
type IAccountRepository interface {
	GetAccount(username string) (chat.UserAccount, bool)
	Authenticate(username, password string) error
	SetOnline(username string, online bool)
	SetAddress(username, address string) error
	Accounts() []chat.UserAccount
	OnlineUsers() []string
}

type Credential struct {
	Username string
	Password string
}

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*chat.UserAccount
}

// NewAccountRepository hashes every credential once; plain passwords are not kept.
func NewAccountRepository(credentials []Credential, params auth.Argon2Params) (*AccountRepository, error) {
	accounts := make(map[string]*chat.UserAccount, len(credentials))
	for _, c := range credentials {
		if err := auth.ValidateUsername(c.Username); err != nil {
			return nil, err
		}
		if _, ok := accounts[c.Username]; ok {
			return nil, fmt.Errorf("duplicate account %s", c.Username)
		}
		hash, err := auth.HashPasswordWith(c.Password, params)
		if err != nil {
			return nil, fmt.Errorf("hashing password of %s: %w", c.Username, err)
		}
		accounts[c.Username] = &chat.UserAccount{Username: c.Username, PasswordHash: hash}
	}
	return &AccountRepository{accounts: accounts}, nil
}

func (r *AccountRepository) GetAccount(username string) (chat.UserAccount, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[username]
	if !ok {
		return chat.UserAccount{}, false
	}
	return *account, true
}

// Authenticate returns ErrInvalidCredentials for an unknown user as well as
// for a wrong password.
func (r *AccountRepository) Authenticate(username, password string) error {
	account, ok := r.GetAccount(username)
	if !ok {
		return errors.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("comparing password of %s: %w", username, err)
	}
	if !match {
		return errors.ErrInvalidCredentials
	}
	return nil
}

func (r *AccountRepository) SetOnline(username string, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[username]; ok {
		account.Online = online
	}
}

func (r *AccountRepository) SetAddress(username, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[username]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrInvalidUsername, username)
	}
	account.Address = address
	return nil
}

// Accounts returns a snapshot ordered by username.
func (r *AccountRepository) Accounts() []chat.UserAccount {
	r.mu.RLock()
	accounts := lo.MapToSlice(r.accounts, func(_ string, a *chat.UserAccount) chat.UserAccount {
		return *a
	})
	r.mu.RUnlock()
	slices.SortFunc(accounts, func(a, b chat.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return accounts
}

// OnlineUsers returns the sorted names of the accounts currently online.
func (r *AccountRepository) OnlineUsers() []string {
	return lo.FilterMap(r.Accounts(), func(a chat.UserAccount, _ int) (string, bool) {
		return a.Username, a.Online
	})
}

// LoadCredentials parses lines of the form "<username>.password = <secret>".
// Blank lines and lines starting with '#' or '!' are ignored.
func LoadCredentials(r io.Reader) ([]Credential, error) {
	var credentials []Credential
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "!") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '='", line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		username, ok := strings.CutSuffix(key, passwordSuffix)
		if !ok || username == "" {
			return nil, fmt.Errorf("line %d: key %q must be <username>%s", line, key, passwordSuffix)
		}
		credentials = append(credentials, Credential{Username: username, Password: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	return credentials, nil
}
