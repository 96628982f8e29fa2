package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	// ErrInvalidAPIKey is returned for keys that do not exist or were revoked.
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrAPIKeyExpired is returned for keys past their expiry time.
	ErrAPIKeyExpired = errors.New("API key has expired")
	// ErrNotFound is returned when a key, role or permission to modify does not exist.
	ErrNotFound = errors.New("not found")
)

// cacheTTL bounds how long a cached key or permission survives without an
// explicit invalidation.
const cacheTTL = 5 * time.Minute

const (
	permissionCacheSize = 64
	apiKeyCacheSize     = 512
)

type permissionKey struct {
	role string
	op   Operation
}

// Authorizer resolves API keys to roles and roles to permissions, backed by
// the auth database and an expiring in-memory cache.
type Authorizer struct {
	db          *sql.DB
	permissions *expirable.LRU[permissionKey, bool]
	keys        *expirable.LRU[string, *APIKey]
}

// NewAuthorizer creates an authorizer over an initialized auth database.
func NewAuthorizer(db *sql.DB) *Authorizer {
	return NewAuthorizerWithTTL(db, cacheTTL)
}

// NewAuthorizerWithTTL creates an authorizer whose cache entries expire after ttl.
func NewAuthorizerWithTTL(db *sql.DB, ttl time.Duration) *Authorizer {
	return &Authorizer{
		db:          db,
		permissions: expirable.NewLRU[permissionKey, bool](permissionCacheSize, nil, ttl),
		keys:        expirable.NewLRU[string, *APIKey](apiKeyCacheSize, nil, ttl),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const apiKeyColumns = `key, role_name, created_at, expires_at, is_active`

func scanAPIKey(row rowScanner) (*APIKey, error) {
	var (
		key       APIKey
		expiresAt sql.NullTime
	)
	if err := row.Scan(&key.Key, &key.RoleName, &key.CreatedAt, &expiresAt, &key.IsActive); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		key.ExpiresAt = &expiresAt.Time
	}
	return &key, nil
}

// expired reports whether the key is past its expiry at now.
func (k *APIKey) expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// AuthenticateAPIKey returns the active key matching apiKey. It fails with
// ErrInvalidAPIKey or ErrAPIKeyExpired when the key cannot be used.
func (a *Authorizer) AuthenticateAPIKey(apiKey string) (*APIKey, error) {
	key, ok := a.keys.Get(apiKey)
	if !ok {
		row := a.db.QueryRow(`SELECT `+apiKeyColumns+` FROM api_keys WHERE key = $1 AND is_active = true`, apiKey)
		var err error
		key, err = scanAPIKey(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidAPIKey
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query API key: %w", err)
		}
	}

	if key.expired(time.Now()) {
		a.keys.Remove(apiKey)
		return nil, ErrAPIKeyExpired
	}

	a.keys.Add(apiKey, key)
	return key, nil
}

// CheckPermission reports whether roleName may perform operation. A role
// without a permission row may do nothing.
func (a *Authorizer) CheckPermission(roleName string, operation Operation) (bool, error) {
	ck := permissionKey{role: roleName, op: operation}
	if allowed, ok := a.permissions.Get(ck); ok {
		return allowed, nil
	}

	perm, err := a.GetPermission(roleName)
	if err != nil {
		return false, err
	}

	allowed := false
	if perm != nil {
		if allowed, err = perm.Allows(operation); err != nil {
			return false, err
		}
	}

	a.permissions.Add(ck, allowed)
	return allowed, nil
}

// GetPermission returns the permission row of a role, or nil if it has none.
func (a *Authorizer) GetPermission(roleName string) (*Permission, error) {
	var perm Permission
	err := a.db.QueryRow(
		`SELECT id, role_name, can_parse, can_run, can_grade FROM permissions WHERE role_name = $1`,
		roleName,
	).Scan(&perm.ID, &perm.RoleName, &perm.CanParse, &perm.CanRun, &perm.CanGrade)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	return &perm, nil
}

// InvalidatePermissionCache drops every cached permission decision.
func (a *Authorizer) InvalidatePermissionCache() {
	a.permissions.Purge()
}

// InvalidateAPIKeyCache drops every cached API key.
func (a *Authorizer) InvalidateAPIKeyCache() {
	a.keys.Purge()
}

// InvalidateAPIKey drops a single cached API key.
func (a *Authorizer) InvalidateAPIKey(apiKey string) {
	a.keys.Remove(apiKey)
}

// CreateAPIKey stores apiKey for roleName. A nil expiresAt never expires.
func (a *Authorizer) CreateAPIKey(apiKey, roleName string, expiresAt *time.Time) error {
	if _, err := a.db.Exec(
		`INSERT INTO api_keys (key, role_name, expires_at) VALUES ($1, $2, $3)`,
		apiKey, roleName, expiresAt,
	); err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}

// ListAPIKeys returns every API key, newest first, including revoked ones.
func (a *Authorizer) ListAPIKeys() ([]APIKey, error) {
	rows, err := a.db.Query(`SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, *key)
	}
	return keys, rows.Err()
}

// RevokeAPIKey deactivates apiKey. Revoked keys stay listed but no longer
// authenticate.
func (a *Authorizer) RevokeAPIKey(apiKey string) error {
	result, err := a.db.Exec(`UPDATE api_keys SET is_active = false WHERE key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("API key %w", ErrNotFound)
	}

	a.InvalidateAPIKey(apiKey)
	return nil
}

// CreateRole adds a role without any permissions.
func (a *Authorizer) CreateRole(roleName, description string) error {
	if _, err := a.db.Exec(
		`INSERT INTO roles (role_name, description) VALUES ($1, $2)`,
		roleName, description,
	); err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// ListRoles returns every role ordered by name.
func (a *Authorizer) ListRoles() ([]Role, error) {
	rows, err := a.db.Query(`SELECT role_name, COALESCE(description, '') FROM roles ORDER BY role_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.RoleName, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreatePermission stores the permission row of a role.
func (a *Authorizer) CreatePermission(perm Permission) error {
	if _, err := a.db.Exec(
		`INSERT INTO permissions (id, role_name, can_parse, can_run, can_grade)
		VALUES (nextval('permissions_id_seq'), $1, $2, $3, $4)`,
		perm.RoleName, perm.CanParse, perm.CanRun, perm.CanGrade,
	); err != nil {
		return fmt.Errorf("failed to create permission: %w", err)
	}

	a.InvalidatePermissionCache()
	return nil
}

// UpdatePermission replaces the operation flags of an existing permission row.
func (a *Authorizer) UpdatePermission(perm Permission) error {
	result, err := a.db.Exec(
		`UPDATE permissions SET can_parse = $1, can_run = $2, can_grade = $3 WHERE role_name = $4`,
		perm.CanParse, perm.CanRun, perm.CanGrade, perm.RoleName,
	)
	if err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("permission for role '%s' %w", perm.RoleName, ErrNotFound)
	}

	a.InvalidatePermissionCache()
	return nil
}

// DeleteRole removes a role together with its permission row and API keys.
// The statements run one by one: DuckDB checks foreign keys eagerly, so a
// parent row cannot be deleted in the same transaction as its children.
func (a *Authorizer) DeleteRole(roleName string) error {
	for _, table := range []string{"permissions", "api_keys"} {
		if _, err := a.db.Exec(`DELETE FROM `+table+` WHERE role_name = $1`, roleName); err != nil {
			return fmt.Errorf("failed to delete %s of role '%s': %w", table, roleName, err)
		}
	}

	result, err := a.db.Exec(`DELETE FROM roles WHERE role_name = $1`, roleName)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("role '%s' %w", roleName, ErrNotFound)
	}

	a.InvalidatePermissionCache()
	// Keys are cached by value, not by role.
	a.InvalidateAPIKeyCache()
	return nil
}
