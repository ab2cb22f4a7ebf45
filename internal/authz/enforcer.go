// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

// Package authz provides RBAC authorization using Casbin.
//
// The model and policy are defined in code: three roles (admin,
// seller, customer) with route-pattern permissions. Sellers inherit
// the customer role; admin passes every check.
package authz

import (
	"fmt"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// rbacModel is the Casbin model: RBAC with keyMatch2 on object paths
// so policies can use patterns like /api/v1/products/:id.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && r.act == p.act
`

// rbacPolicy grants each role its permissions. Lines follow the Casbin
// CSV form: p, role, object pattern, action / g, member, role.
const rbacPolicy = `
# Catalog management
p, seller, /api/v1/products, write
p, seller, /api/v1/products/:id, write
p, seller, /api/v1/products/:id, delete

# Administration
p, admin, /api/v1/admin/orders, read
p, admin, /api/v1/admin/orders/:id/status, write
p, admin, /api/v1/admin/users/:id/role, write

# Customers rate products and manage their own orders
p, customer, /api/v1/products/:id/rate, write
p, customer, /api/v1/orders, read
p, customer, /api/v1/orders, write
p, customer, /api/v1/orders/:id, read
p, customer, /api/v1/orders/:id/cancel, write
p, customer, /api/v1/recommendations/for-you, read

# Role hierarchy: seller and admin include customer; admin includes seller
g, seller, customer
g, admin, seller
`

// EnforcerConfig holds enforcer settings.
type EnforcerConfig struct {
	// CacheEnabled caches enforcement decisions.
	CacheEnabled bool

	// CacheTTL is how long decisions stay cached.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default settings.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
	}
}

// Enforcer wraps the Casbin enforcer with decision caching.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer builds the enforcer from the in-code model and policy.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := loadPolicy(enforcer, rbacPolicy); err != nil {
		return nil, err
	}

	e := &Enforcer{
		config:   config,
		enforcer: enforcer,
	}
	if config.CacheEnabled {
		e.cache = newEnforcementCache(config.CacheTTL)
	}

	return e, nil
}

// loadPolicy parses the CSV-form policy and installs each rule.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		ptype, rule := parts[0], parts[1:]
		switch ptype {
		case "p":
			if len(rule) >= 3 {
				if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
					return fmt.Errorf("failed to add policy %v: %w", rule, err)
				}
			}
		case "g":
			if len(rule) >= 2 {
				if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
					return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
				}
			}
		}
	}
	return nil
}

// Enforce checks whether the subject (a role or user) may perform the
// action on the object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(subject, object, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(subject, object, action, allowed)
	}

	return allowed, nil
}

// AddRoleForUser assigns a role to a user id.
func (e *Enforcer) AddRoleForUser(user, role string) error {
	if _, err := e.enforcer.AddGroupingPolicy(user, role); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	if e.cache != nil {
		e.cache.invalidateUser(user)
	}
	return nil
}

// GetRolesForUser returns all roles assigned to a user id.
func (e *Enforcer) GetRolesForUser(user string) ([]string, error) {
	return e.enforcer.GetRolesForUser(user)
}

// Close releases cache resources.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
