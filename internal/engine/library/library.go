package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DefaultHashCost is the bcrypt cost for new passwords.
const DefaultHashCost = 12

const (
	minNameLen     = 2
	maxNameLen     = 100
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit, in bytes
	minTitleLen    = 2
	maxTitleLen    = 100
)

// Library implements accounts and prompt management on top of a Store.
type Library struct {
	store    Store
	tokens   *TokenIssuer
	hashCost int
}

// New returns a Library. hashCost <= 0 selects DefaultHashCost.
func New(store Store, tokens *TokenIssuer, hashCost int) *Library {
	if hashCost <= 0 {
		hashCost = DefaultHashCost
	}
	return &Library{store: store, tokens: tokens, hashCost: hashCost}
}

// Tokens exposes the issuer for request authentication.
func (l *Library) Tokens() *TokenIssuer { return l.tokens }

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Signup registers a user and returns it with a fresh token.
func (l *Library) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, &ValidationError{Msg: "Name, email, and password are required"}
	}

	var problems []string
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		problems = append(problems, fmt.Sprintf("Name must be between %d and %d characters", minNameLen, maxNameLen))
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		problems = append(problems, "Must be a valid email address")
	}
	if len(in.Password) < minPasswordLen {
		problems = append(problems, fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	} else if len(in.Password) > maxPasswordLen {
		problems = append(problems, fmt.Sprintf("Password must be at most %d bytes", maxPasswordLen))
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Msg: "Validation error", Problems: problems}
	}

	if _, err := l.store.UserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), l.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{Name: name, Email: email, PasswordHash: string(hash), Role: RoleUser, IsActive: true}
	if err := l.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("user signed up", slog.Int64("user_id", u.ID))
	return l.authResult(u)
}

// Login checks credentials and returns the user with a fresh token.
func (l *Library) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, &ValidationError{Msg: "Email and password are required"}
	}
	u, err := l.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return l.authResult(u)
}

func (l *Library) authResult(u *User) (*AuthResult, error) {
	token, exp, err := l.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

// Authenticate verifies a bearer token and loads its user.
func (l *Library) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := l.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := l.store.UserByID(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func validatePrompt(title, prompt string) []string {
	var problems []string
	if n := utf8.RuneCountInString(strings.TrimSpace(title)); n < minTitleLen || n > maxTitleLen {
		problems = append(problems, fmt.Sprintf("Title must be between %d and %d characters", minTitleLen, maxTitleLen))
	}
	if strings.TrimSpace(prompt) == "" {
		problems = append(problems, "Prompt cannot be empty")
	}
	return problems
}

// CreatePrompt saves a prompt owned by userID.
func (l *Library) CreatePrompt(ctx context.Context, userID int64, in PromptInput) (*Prompt, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Prompt) == "" {
		return nil, &ValidationError{Msg: "Title and content are required"}
	}
	if problems := validatePrompt(in.Title, in.Prompt); len(problems) > 0 {
		return nil, &ValidationError{Msg: "Validation error", Problems: problems}
	}
	p := &Prompt{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Prompt:      in.Prompt,
	}
	if err := l.store.CreatePrompt(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPrompts returns the prompts owned by userID, oldest first.
func (l *Library) ListPrompts(ctx context.Context, userID int64) ([]Prompt, error) {
	return l.store.ListPrompts(ctx, userID)
}

// UpdatePrompt applies patch to a prompt owned by userID.
func (l *Library) UpdatePrompt(ctx context.Context, userID, id int64, patch PromptPatch) (*Prompt, error) {
	p, err := l.store.GetPrompt(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Prompt != nil {
		p.Prompt = *patch.Prompt
	}
	if problems := validatePrompt(p.Title, p.Prompt); len(problems) > 0 {
		return nil, &ValidationError{Msg: "Validation error", Problems: problems}
	}
	if err := l.store.UpdatePrompt(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePrompt removes a prompt owned by userID.
func (l *Library) DeletePrompt(ctx context.Context, userID, id int64) error {
	return l.store.DeletePrompt(ctx, userID, id)
}
