package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials represents login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// BcryptHasher hashes and compares operator passwords.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed password hasher.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash converts plain password into hash.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare checks if provided password matches stored hash.
func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Operators issues dashboard tokens for a fixed set of accounts keyed by
// username with bcrypt password hashes.
type Operators struct {
	accounts map[string]string
	hasher   *BcryptHasher
	tokens   *TokenService
}

// NewOperators returns operator login.
func NewOperators(accounts map[string]string, tokens *TokenService) *Operators {
	normalized := make(map[string]string, len(accounts))
	for name, hash := range accounts {
		normalized[strings.ToLower(strings.TrimSpace(name))] = hash
	}
	return &Operators{accounts: normalized, hasher: NewBcryptHasher(0), tokens: tokens}
}

// Login validates credentials and returns a signed token.
func (o *Operators) Login(username, password string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, ok := o.accounts[username]
	if !ok || password == "" {
		return "", ErrInvalidCredentials
	}
	if err := o.hasher.Compare(hash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return o.tokens.GenerateToken(username, "operator")
}
