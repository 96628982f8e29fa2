package database

import (
	"context"
	"database/sql"
	"fmt"
)

// authSchema creates the auth tables and the default roles. Every statement
// is idempotent so it can be re-run against an existing auth database.
const authSchema = `
	-- Roles table
	CREATE TABLE IF NOT EXISTS roles (
		role_name VARCHAR PRIMARY KEY,
		description VARCHAR
	);

	-- API Keys table
	CREATE TABLE IF NOT EXISTS api_keys (
		key VARCHAR PRIMARY KEY,
		role_name VARCHAR NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP,
		is_active BOOLEAN DEFAULT true,
		FOREIGN KEY (role_name) REFERENCES roles(role_name)
	);

	-- Permissions table, one row per role
	CREATE TABLE IF NOT EXISTS permissions (
		id INTEGER PRIMARY KEY,
		role_name VARCHAR NOT NULL UNIQUE,
		can_parse BOOLEAN DEFAULT false,
		can_run BOOLEAN DEFAULT false,
		can_grade BOOLEAN DEFAULT false,
		FOREIGN KEY (role_name) REFERENCES roles(role_name)
	);

	CREATE SEQUENCE IF NOT EXISTS permissions_id_seq START 1;

	-- Default roles
	INSERT INTO roles (role_name, description)
	VALUES ('learner', 'Parse, run and grade queries')
	ON CONFLICT DO NOTHING;

	INSERT INTO roles (role_name, description)
	VALUES ('guest', 'Parse queries and browse lessons only')
	ON CONFLICT DO NOTHING;

	-- Default permissions
	INSERT INTO permissions (id, role_name, can_parse, can_run, can_grade)
	VALUES (nextval('permissions_id_seq'), 'learner', true, true, true)
	ON CONFLICT DO NOTHING;

	INSERT INTO permissions (id, role_name, can_parse, can_run, can_grade)
	VALUES (nextval('permissions_id_seq'), 'guest', true, false, false)
	ON CONFLICT DO NOTHING;
`

// InitAuthDatabase creates the auth schema and default roles on db.
func InitAuthDatabase(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, authSchema); err != nil {
		return fmt.Errorf("failed to create auth schema: %w", err)
	}
	return nil
}
