package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/userdir/internal/server/auth"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"gopkg.in/yaml.v3"
)

// AccessFile is the YAML document describing who may call the server.
//
//	policy:
//	  read: [USER, MANAGER, ADMIN]
//	  write: [ADMIN]
//	operators:
//	  - username: admin
//	    password_hash: $2a$10$...
//	    roles: [ADMIN]
type AccessFile struct {
	Policy    map[string][]string `yaml:"policy"`
	Operators []OperatorEntry     `yaml:"operators"`
}

type OperatorEntry struct {
	Username     string   `yaml:"username"`
	PasswordHash string   `yaml:"password_hash"`
	Roles        []string `yaml:"roles"`
}

// Access is the parsed access file.
type Access struct {
	Policy    authz.Policy
	Operators []auth.Operator
}

// LoadAccess reads path. A missing file yields the default policy and no
// operators. An empty policy section also means the default policy.
func LoadAccess(path string) (*Access, error) {
	acc := &Access{Policy: authz.DefaultPolicy()}
	if path == "" {
		return acc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return acc, nil
		}
		return nil, fmt.Errorf("read access file: %w", err)
	}

	return ParseAccess(data)
}

// ParseAccess decodes an access file document.
func ParseAccess(data []byte) (*Access, error) {
	var f AccessFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse access file: %w", err)
	}

	acc := &Access{Policy: authz.DefaultPolicy()}
	if len(f.Policy) > 0 {
		p, err := authz.ParsePolicy(f.Policy)
		if err != nil {
			return nil, fmt.Errorf("access file policy: %w", err)
		}
		acc.Policy = p
	}

	for _, o := range f.Operators {
		acc.Operators = append(acc.Operators, auth.Operator{
			Username:     o.Username,
			PasswordHash: o.PasswordHash,
			Roles:        o.Roles,
		})
	}
	return acc, nil
}
