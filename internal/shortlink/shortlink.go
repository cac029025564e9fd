// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

// Package shortlink generates the random codes behind recipe short links.
//
// Codes are drawn uniformly from [A-Za-z0-9] using crypto/rand. Uniqueness is
// the caller's concern: GenerateUnique asks an ExistsFunc about each
// candidate and retries on collision up to a bounded number of attempts.
package shortlink

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Alphabet is the set of characters a code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultLength is the code length stored on recipes.
	DefaultLength = 8
	// DefaultMaxAttempts bounds GenerateUnique.
	DefaultMaxAttempts = 64

	// Bytes at or above this value are rejected so that byte % 62 is uniform.
	rejectionLimit = 256 - 256%len(Alphabet)
)

// ErrExhausted is returned when every attempt collided.
var ErrExhausted = errors.New("shortlink: no unique code after max attempts")

// ExistsFunc reports whether code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces codes. The zero value is not usable; call New.
type Generator struct {
	length      int
	maxAttempts int
	source      io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithLength sets the code length.
func WithLength(n int) Option {
	return func(g *Generator) { g.length = n }
}

// WithMaxAttempts sets how many candidates GenerateUnique tries.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) { g.maxAttempts = n }
}

// WithSource replaces crypto/rand, for deterministic tests.
func WithSource(r io.Reader) Option {
	return func(g *Generator) { g.source = r }
}

// New returns a Generator with DefaultLength and DefaultMaxAttempts.
func New(opts ...Option) *Generator {
	g := &Generator{
		length:      DefaultLength,
		maxAttempts: DefaultMaxAttempts,
		source:      rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one random code.
func (g *Generator) Generate() (string, error) {
	if g.length <= 0 {
		return "", fmt.Errorf("shortlink: invalid length %d", g.length)
	}

	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)
	for len(out) < g.length {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("shortlink: read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectionLimit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == g.length {
				break
			}
		}
	}
	return string(out), nil
}

// GenerateUnique returns a code for which exists reports false.
func (g *Generator) GenerateUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := g.Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("shortlink: check collision: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Generate draws n characters from Alphabet using crypto/rand.
func Generate(n int) (string, error) {
	return New(WithLength(n)).Generate()
}

// GenerateUnique draws n-character codes until exists reports no collision,
// giving up with ErrExhausted after DefaultMaxAttempts.
func GenerateUnique(ctx context.Context, n int, exists ExistsFunc) (string, error) {
	return New(WithLength(n)).GenerateUnique(ctx, exists)
}

// Valid reports whether code has length n and uses only Alphabet.
func Valid(code string, n int) bool {
	if len(code) != n {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
