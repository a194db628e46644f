package services

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Password length bounds, in characters
const (
	MinPasswordLength = 8
	MaxPasswordLength = 64
)

// PasswordPolicy validates new passwords. The breach lookup is optional and
// fails open: an unreachable checker never blocks registration.
type PasswordPolicy struct {
	breaches driven.BreachChecker
	logger   *slog.Logger
}

// NewPasswordPolicy creates a policy. breaches may be nil.
func NewPasswordPolicy(breaches driven.BreachChecker, logger *slog.Logger) *PasswordPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordPolicy{breaches: breaches, logger: logger}
}

// Validate returns the rules password breaks, keyed by rule name.
// An empty result means the password is acceptable.
func (p *PasswordPolicy) Validate(ctx context.Context, password, email string) map[string]string {
	violations := make(map[string]string)

	hasUpper, hasDigit, onlyDigits := false, false, password != ""
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		} else {
			onlyDigits = false
		}
	}

	if !hasUpper {
		violations["capital_letter"] = "At least one capital letter is required."
	}
	if !hasDigit {
		violations["numeric"] = "At least one numeric is required."
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		violations["length"] = "Password must be between 8 and 64 characters."
	}
	if onlyDigits {
		violations["only_digits"] = "Password cannot consist of digits only."
	}
	if containsEmail(password, email) {
		violations["cannot_be_used"] = "Password must not contain the email or its name."
	}
	if strings.Contains(password, " ") {
		violations["spaces"] = "Password must not contain spaces."
	}

	if len(violations) == 0 && p.breaches != nil {
		breached, err := p.breaches.IsBreached(ctx, password)
		if err != nil {
			p.logger.Warn("breach check failed, allowing password", "error", err)
		} else if breached {
			violations["compromised"] = "Password has appeared in a data breach."
		}
	}

	return violations
}

// containsEmail reports whether password contains the email or its local
// part, forwards or reversed, ignoring case.
func containsEmail(password, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	lower := strings.ToLower(password)
	name, _, _ := strings.Cut(email, "@")

	for _, s := range []string{email, reverse(email), name, reverse(name)} {
		if s != "" && strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
