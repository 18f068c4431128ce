package auth

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"golang.org/x/crypto/bcrypt"
)

// Operator is an account allowed to call the directory, loaded from the
// access file. PasswordHash is a bcrypt hash.
type Operator struct {
	Username     string
	PasswordHash string
	Roles        []string
}

// dummyHash is compared against when the username is unknown so both paths
// cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("userdir-dummy"), bcrypt.MinCost)

// OperatorDirectory authenticates operators by username and password.
type OperatorDirectory struct {
	operators map[string]Operator
}

func NewOperatorDirectory(ops []Operator) (*OperatorDirectory, error) {
	d := &OperatorDirectory{operators: make(map[string]Operator, len(ops))}
	for _, op := range ops {
		name := strings.TrimSpace(op.Username)
		if name == "" {
			return nil, fmt.Errorf("operator without username")
		}
		if _, err := bcrypt.Cost([]byte(op.PasswordHash)); err != nil {
			return nil, fmt.Errorf("operator %s: invalid bcrypt hash: %w", name, err)
		}
		if _, dup := d.operators[name]; dup {
			return nil, fmt.Errorf("operator %s defined twice", name)
		}
		d.operators[name] = op
	}
	return d, nil
}

// Authenticate returns the operator's principal when password matches.
func (d *OperatorDirectory) Authenticate(username, password string) (authz.Principal, error) {
	op, ok := d.operators[username]
	hash := dummyHash
	if ok {
		hash = []byte(op.PasswordHash)
	}

	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if !ok || err != nil {
		return authz.Principal{}, common.ErrorUnauthenticated
	}
	return authz.NewPrincipal(op.Username, op.Roles...), nil
}

// HashOperatorPassword produces a bcrypt hash suitable for the access file.
func HashOperatorPassword(password []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
