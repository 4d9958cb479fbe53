package database

import (
	"fmt"
	"log"
)

type migration struct {
	version int
	name    string
	sql     string
}

// Portable SQL only: TEXT primary keys (uuid strings), times stored as
// RFC3339 TEXT, upserts via ON CONFLICT DO UPDATE. Runs unchanged on
// sqlite and postgres.
var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT UNIQUE NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_profiles (
  user_id TEXT PRIMARY KEY REFERENCES users(id),
  age INTEGER NOT NULL DEFAULT 0,
  sex TEXT NOT NULL DEFAULT '',
  height_cm REAL NOT NULL DEFAULT 0,
  activity_level TEXT NOT NULL DEFAULT '',
  goal TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS weight_logs (
  user_id TEXT NOT NULL REFERENCES users(id),
  log_date TEXT NOT NULL,
  weight REAL NOT NULL CHECK(weight > 0),
  unit TEXT NOT NULL DEFAULT 'lb',
  updated_at TEXT NOT NULL,
  PRIMARY KEY(user_id, log_date)
);

CREATE TABLE IF NOT EXISTS calorie_logs (
  user_id TEXT NOT NULL REFERENCES users(id),
  log_date TEXT NOT NULL,
  calories_consumed REAL NOT NULL DEFAULT 0,
  calories_burned REAL NOT NULL DEFAULT 0,
  net_calories REAL NOT NULL DEFAULT 0,
  updated_at TEXT NOT NULL,
  PRIMARY KEY(user_id, log_date)
);

CREATE TABLE IF NOT EXISTS meals (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  name TEXT NOT NULL,
  calories REAL NOT NULL DEFAULT 0,
  protein_g REAL NOT NULL DEFAULT 0,
  carbs_g REAL NOT NULL DEFAULT 0,
  fat_g REAL NOT NULL DEFAULT 0,
  confidence REAL NOT NULL DEFAULT 0,
  foods TEXT,
  suggestions TEXT,
  source TEXT NOT NULL DEFAULT 'manual',
  logged_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tdee_snapshots (
  user_id TEXT PRIMARY KEY REFERENCES users(id),
  adaptive_tdee REAL NOT NULL,
  formula_tdee REAL NOT NULL,
  confidence TEXT NOT NULL,
  confidence_score INTEGER NOT NULL,
  data_points INTEGER NOT NULL,
  method TEXT NOT NULL,
  recommended_calories REAL NOT NULL,
  calculated_at TEXT NOT NULL
);
`,
	},
	{
		version: 2,
		name:    "llm_spend",
		sql: `
CREATE TABLE IF NOT EXISTS llm_spend (
  user_id TEXT NOT NULL,
  spend_date TEXT NOT NULL,
  requests INTEGER NOT NULL DEFAULT 0,
  cost REAL NOT NULL DEFAULT 0,
  daily_limit REAL NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY(user_id, spend_date)
);
`,
	},
	{
		version: 3,
		name:    "meal_indexes",
		sql: `
CREATE INDEX IF NOT EXISTS idx_meals_user_logged_at ON meals(user_id, logged_at);
CREATE INDEX IF NOT EXISTS idx_weight_logs_date ON weight_logs(user_id, log_date);
CREATE INDEX IF NOT EXISTS idx_calorie_logs_date ON calorie_logs(user_id, log_date);
`,
	},
}

// Migrate applies any migrations not yet recorded in schema_migrations.
func (s *SQLStore) Migrate() error {
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := s.db.Exec(s.rebind(`INSERT INTO schema_migrations(version, name, applied_at) VALUES(?, ?, ?)`),
			m.version, m.name, nowString()); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		log.Printf("Applied migration %d: %s", m.version, m.name)
	}
	return nil
}
