// Package agent identifies the calling commerce agent from the optional
// Commerce-Agent request header (an RFC 8941 Dictionary) and carries that
// identity through the request context.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// HeaderName is the request header that identifies the calling agent.
const HeaderName = "Commerce-Agent"

// Agent is the identity an agent declared for itself. It is not authenticated.
type Agent struct {
	Profile string // URL of the agent's profile document
	Name    string // optional display name
}

// ParseHeader parses a Commerce-Agent header value.
// Format: profile="https://agent.example/profile", name="shopper"
//
// Examples:
//   - profile="https://agent.example/profile" → Profile https://agent.example/profile
//   - profile="https://foo.bar/p";v=1, name="bot" → Profile https://foo.bar/p, Name bot
//
// Returns error if header is empty, malformed, or missing profile key.
func ParseHeader(header string) (*Agent, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, errors.New("empty Commerce-Agent header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return nil, fmt.Errorf("invalid Commerce-Agent header: %w", err)
	}

	profile, err := stringMember(dict, "profile")
	if err != nil {
		return nil, err
	}
	if profile == "" {
		return nil, errors.New("profile key not found in Commerce-Agent header")
	}

	name, err := stringMember(dict, "name")
	if err != nil {
		return nil, err
	}

	return &Agent{Profile: profile, Name: name}, nil
}

// stringMember returns the string item stored under key, or "" if absent.
func stringMember(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}

	s, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s value must be a string", key)
	}
	return s, nil
}

type contextKey struct{}

// WithAgent returns a copy of ctx carrying a.
func WithAgent(ctx context.Context, a *Agent) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the agent stored in ctx, or nil when the caller did
// not identify itself.
func FromContext(ctx context.Context) *Agent {
	a, _ := ctx.Value(contextKey{}).(*Agent)
	return a
}
