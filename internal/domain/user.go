package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxNameLength     = 100
	maxEmailLength    = 255
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
	passwordSpecials  = "@$!%*?&"
)

// User represents a registered account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserIdentity is the immutable {ID, Email} snapshot that tokens are minted
// from. It is borrowed from the user store for the lifetime of one request.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewUser creates a new User with the given name, email and plaintext password.
// The email is trimmed and lowercased and the name is trimmed before validation.
//
// The caller is responsible for hashing the password before storing the user.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Identity returns the token-facing snapshot of the user.
func (u *User) Identity() UserIdentity {
	return UserIdentity{ID: u.ID.String(), Email: u.Email}
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if err := validateName(u.Name); err != nil {
		return err
	}

	if err := validateEmail(u.Email); err != nil {
		return err
	}

	if u.Password != "" {
		return ValidatePassword(u.Password)
	}

	// Existing users loaded from the store only carry the hash
	if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// NormalizeEmail trims and lowercases an email address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces the password policy: 8 to 72 bytes containing at
// least one lowercase letter, uppercase letter, digit and special character.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return ErrPasswordComplexity
	}

	return nil
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return ErrInvalidName
		}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > maxEmailLength {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}

	at := strings.LastIndex(email, "@")
	if !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}

	return nil
}
