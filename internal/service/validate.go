package service

import (
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/suite-exchange/internal/apperr"
)

// textField trims s and checks its length in runes.  max 0 means no upper
// bound.
func textField(field, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n < min && min == 1:
		return "", apperr.New(apperr.ValidationError, "%s is required", field)
	case n < min:
		return "", apperr.New(apperr.ValidationError, "%s must be at least %d characters", field, min)
	case max > 0 && n > max:
		return "", apperr.New(apperr.ValidationError, "%s must be at most %d characters", field, max)
	}
	return s, nil
}

// optionalText is textField for optional values: nil or blank stays nil.
func optionalText(field string, s *string, max int) (*string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := textField(field, *s, 0, max)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// validPhone accepts digits, spaces and + - ( ).
func validPhone(s string) (string, error) {
	s, err := textField("phone", s, 7, 32)
	if err != nil {
		return "", err
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '+' || r == '-' || r == '(' || r == ')':
		default:
			return "", apperr.New(apperr.ValidationError, "phone may only contain digits, spaces and + - ( )")
		}
	}
	if digits < 7 {
		return "", apperr.New(apperr.ValidationError, "phone must contain at least 7 digits")
	}
	return s, nil
}
