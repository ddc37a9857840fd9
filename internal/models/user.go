// Package models defines core domain types
package models

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ProviderEmail marks accounts created through the email sign-up flow.
const ProviderEmail = "email"

var initialsPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// User represents a club member
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Initials    string     `json:"initials"`
	Name        string     `json:"name"`
	Approved    bool       `json:"approved"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy  string     `json:"approvedBy,omitempty"`
	Provider    string     `json:"provider"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewUser creates a new member with generated ID and timestamps. Email and
// initials are normalized; the display name is derived from the name parts.
func NewUser(email, firstName, lastName, initials string) *User {
	u := &User{
		ID:        uuid.New().String(),
		Email:     NormalizeEmail(email),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Initials:  NormalizeInitials(initials),
		Provider:  ProviderEmail,
		CreatedAt: time.Now().UTC(),
	}
	u.Name = u.DisplayName()
	return u
}

// DisplayName joins the name parts into the display string.
func (u *User) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// NormalizeEmail lowercases and trims an email address. Identity comparisons
// always go through this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeInitials uppercases and trims a set of initials.
func NormalizeInitials(initials string) string {
	return strings.ToUpper(strings.TrimSpace(initials))
}

// ValidInitials reports whether s is one to five uppercase letters. Run
// NormalizeInitials first.
func ValidInitials(s string) bool {
	return initialsPattern.MatchString(s)
}

// SplitDisplayName splits a stored display name into first and last parts.
// Everything after the first word counts as the last name.
func SplitDisplayName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// SuggestInitials builds initials from the leading letters of the name parts.
func SuggestInitials(first, last string) string {
	var b strings.Builder
	for _, part := range []string{first, last} {
		for _, r := range part {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	return b.String()
}
