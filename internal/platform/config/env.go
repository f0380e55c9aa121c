package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/money"
)

// source reads typed values from the merged environment. A value that is set but does not parse
// records its field in invalid and yields the fallback.
type source struct {
	values  map[string]string
	invalid []string
}

func (s *source) raw(key string) (string, bool) {
	value := strings.TrimSpace(s.values[key])
	return value, value != ""
}

func (s *source) fail(field string) {
	s.invalid = append(s.invalid, field)
}

func (s *source) str(key, fallback string) string {
	if value, ok := s.raw(key); ok {
		return value
	}
	return fallback
}

func (s *source) duration(field, key string, fallback time.Duration) time.Duration {
	value, ok := s.raw(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		s.fail(field)
		return fallback
	}
	return d
}

func (s *source) integer(field, key string, fallback int) int {
	value, ok := s.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		s.fail(field)
		return fallback
	}
	return n
}

// flag is false unless set. It accepts true/false, 1/0, yes/no and on/off.
func (s *source) flag(field, key string) bool {
	value, ok := s.raw(key)
	if !ok {
		return false
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	s.fail(field)
	return false
}

// minor parses a major-unit amount such as "499.00" into minor units.
func (s *source) minor(field, key string, fallback int64) int64 {
	value, ok := s.raw(key)
	if !ok {
		return fallback
	}
	amount, err := money.ParseMinor(value)
	if err != nil {
		s.fail(field)
		return fallback
	}
	return amount
}

func (s *source) rate(field, key, fallback string) decimal.Decimal {
	value, ok := s.raw(key)
	if !ok {
		value = fallback
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		s.fail(field)
		return decimal.RequireFromString(fallback)
	}
	return rate
}

// lowerList splits a comma separated value, dropping blanks. It never returns nil.
func (s *source) lowerList(key string) []string {
	out := []string{}
	value, _ := s.raw(key)
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
