// Package auth resolves the caller of a request into an authz.Principal.
//
// Two schemes are accepted in the authorization header: Basic credentials
// of an operator listed in the access file, and Bearer tokens signed by an
// external issuer with the shared secret.
package auth

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
)

type Resolver struct {
	operators *OperatorDirectory
	tokens    *TokenVerifier
}

// NewResolver builds a Resolver. Either source may be nil to disable it.
func NewResolver(operators *OperatorDirectory, tokens *TokenVerifier) *Resolver {
	return &Resolver{operators: operators, tokens: tokens}
}

// Resolve maps an authorization header value to a principal. Every failure
// wraps common.ErrorUnauthenticated.
func (r *Resolver) Resolve(header string) (authz.Principal, error) {
	scheme, value, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || value == "" {
		return authz.Principal{}, fmt.Errorf("%w: missing credentials", common.ErrorUnauthenticated)
	}

	switch strings.ToLower(scheme) {
	case "basic":
		if r.operators == nil {
			return authz.Principal{}, fmt.Errorf("%w: basic auth disabled", common.ErrorUnauthenticated)
		}
		username, password, err := decodeBasic(value)
		if err != nil {
			return authz.Principal{}, err
		}
		return r.operators.Authenticate(username, password)

	case "bearer":
		if r.tokens == nil {
			return authz.Principal{}, fmt.Errorf("%w: bearer auth disabled", common.ErrorUnauthenticated)
		}
		p, err := r.tokens.Principal(strings.TrimSpace(value))
		if err != nil {
			return authz.Principal{}, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
		}
		return p, nil
	}

	return authz.Principal{}, fmt.Errorf("%w: unsupported scheme %q", common.ErrorUnauthenticated, scheme)
}

func decodeBasic(value string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed basic credentials", common.ErrorUnauthenticated)
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("%w: malformed basic credentials", common.ErrorUnauthenticated)
	}
	return username, password, nil
}
