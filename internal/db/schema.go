package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// owner_id is the only containment link: a row's parent is the inventory
// named by owner_id, a root owns itself, and child lists are derived from the
// owner_id indexes.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_admin      INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventories (
    id                   TEXT PRIMARY KEY,
    owner_id             TEXT NOT NULL REFERENCES inventories(id),
    position             INTEGER NOT NULL DEFAULT 0,
    name                 TEXT NOT NULL,
    kind                 TEXT NOT NULL CHECK (kind IN ('character', 'location', 'vehicle', 'generic')),
    weight_value         REAL NOT NULL DEFAULT 0,
    weight_unit          TEXT NOT NULL DEFAULT 'kg',
    personal_value       REAL,
    personal_unit        TEXT,
    money_value          REAL,
    money_unit           TEXT,
    max_carry_value      REAL,
    max_carry_unit       TEXT,
    description          TEXT,
    details              TEXT NOT NULL DEFAULT '{}',
    photos               TEXT NOT NULL DEFAULT '[]',
    total_weight         REAL NOT NULL DEFAULT 0,
    total_personal_value REAL NOT NULL DEFAULT 0,
    total_money_amount   REAL NOT NULL DEFAULT 0,
    total_value          REAL NOT NULL DEFAULT 0,
    created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_inventories_owner ON inventories(owner_id, position);
CREATE INDEX IF NOT EXISTS idx_inventories_kind ON inventories(kind);

CREATE TABLE IF NOT EXISTS items (
    id              TEXT PRIMARY KEY,
    owner_id        TEXT NOT NULL REFERENCES inventories(id),
    position        INTEGER NOT NULL DEFAULT 0,
    name            TEXT NOT NULL,
    kind            TEXT NOT NULL CHECK (kind IN ('food', 'liquid', 'weapon', 'book', 'generic')),
    weight_value    REAL NOT NULL DEFAULT 0,
    weight_unit     TEXT NOT NULL DEFAULT 'kg',
    personal_value  REAL,
    personal_unit   TEXT,
    money_value     REAL,
    money_unit      TEXT,
    description     TEXT,
    expiration_date TEXT,
    details         TEXT NOT NULL DEFAULT '{}',
    photos          TEXT NOT NULL DEFAULT '[]',
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id, position);

CREATE TABLE IF NOT EXISTS games (
    id             TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    details        TEXT,
    is_public      INTEGER NOT NULL DEFAULT 0,
    created_by     TEXT NOT NULL,
    global_root_id TEXT REFERENCES inventories(id),
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS game_participants (
    game_id   TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (game_id, user_id)
);

CREATE TABLE IF NOT EXISTS game_private_roots (
    inventory_id TEXT PRIMARY KEY REFERENCES inventories(id),
    game_id      TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    user_id      TEXT NOT NULL REFERENCES users(id),
    is_main      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_private_roots_game_user ON game_private_roots(game_id, user_id);

CREATE TABLE IF NOT EXISTS game_shared_roots (
    inventory_id TEXT NOT NULL REFERENCES inventories(id),
    user_id      TEXT NOT NULL REFERENCES users(id),
    game_id      TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    PRIMARY KEY (inventory_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_shared_roots_game ON game_shared_roots(game_id, user_id);

CREATE TABLE IF NOT EXISTS photos (
    id         TEXT PRIMARY KEY,
    node_id    TEXT NOT NULL,
    data       BLOB NOT NULL,
    thumbnail  BLOB NOT NULL,
    mime       TEXT NOT NULL,
    width      INTEGER NOT NULL,
    height     INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_photos_node ON photos(node_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
