// Package postgres implements the moderation store on PostgreSQL
package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/averykip/invadersync/internal/banstore"
)

const (
	createUserBansTable = `
		CREATE TABLE IF NOT EXISTS user_bans (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(100) NOT NULL,
			banned_by VARCHAR(100) NOT NULL,
			ban_reason TEXT,
			ban_duration_minutes INT,
			ban_start TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			ban_end TIMESTAMP WITH TIME ZONE,
			is_permanent BOOLEAN DEFAULT FALSE,
			is_active BOOLEAN DEFAULT TRUE
		);`

	createLoginLogTable = `
		CREATE TABLE IF NOT EXISTS login_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(100) NOT NULL,
			is_admin BOOLEAN DEFAULT FALSE,
			ip VARCHAR(64),
			attempted_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`

	createRoomMirrorTable = `
		CREATE TABLE IF NOT EXISTS multiplayer_rooms (
			room_code VARCHAR(10) PRIMARY KEY,
			host_player_id VARCHAR(64) NOT NULL,
			host_name VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'waiting',
			player_count INT DEFAULT 0,
			max_players INT DEFAULT 4,
			game_started BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			last_updated TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`

	createRoomPlayersTable = `
		CREATE TABLE IF NOT EXISTS room_players (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			room_code VARCHAR(10) NOT NULL,
			player_id VARCHAR(64) NOT NULL,
			player_name VARCHAR(100) NOT NULL,
			player_avatar VARCHAR(50),
			player_ship VARCHAR(50),
			joined_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			last_seen TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			is_online BOOLEAN DEFAULT TRUE,
			UNIQUE(room_code, player_id)
		);`

	createIndexes = `
		CREATE INDEX IF NOT EXISTS idx_user_bans_username ON user_bans(username);
		CREATE INDEX IF NOT EXISTS idx_user_bans_active ON user_bans(is_active);
		CREATE INDEX IF NOT EXISTS idx_room_players_room_code ON room_players(room_code);
		CREATE INDEX IF NOT EXISTS idx_room_players_last_seen ON room_players(last_seen);`
)

// Store is a PostgreSQL-backed moderation store
type Store struct {
	db *sql.DB
}

// Ensure Store implements the interface
var _ banstore.Store = (*Store)(nil)

// New opens a connection pool against dsn and ensures the schema exists
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle (for testing)
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	tables := []struct {
		name  string
		query string
	}{
		{"user_bans", createUserBansTable},
		{"login_logs", createLoginLogTable},
		{"multiplayer_rooms", createRoomMirrorTable},
		{"room_players", createRoomPlayersTable},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("creating %s table: %w", table.name, err)
		}
	}

	if _, err := db.Exec(createIndexes); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	return nil
}
