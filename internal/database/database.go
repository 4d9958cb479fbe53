package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/heirclark/nutricoach/internal/models"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB interface defines the methods our database should implement
type DB interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	UpsertWeightLog(ctx context.Context, userID string, entry models.WeightLogEntry) error
	ListWeightLogs(ctx context.Context, userID string, limit int) ([]models.WeightLogEntry, error)
	UpsertCalorieLog(ctx context.Context, userID string, entry models.CalorieLogEntry) error
	ListCalorieLogs(ctx context.Context, userID string, limit int) ([]models.CalorieLogEntry, error)

	SaveMeal(ctx context.Context, meal *models.Meal) error
	ListMeals(ctx context.Context, userID string, limit int) ([]*models.Meal, error)

	SaveTDEESnapshot(ctx context.Context, userID string, result *models.TDEEResult) error
	GetLatestTDEESnapshot(ctx context.Context, userID string) (*models.TDEEResult, error)

	GetLLMSpend(ctx context.Context, userID, date string) (*models.LLMSpendRecord, error)
	AddLLMSpend(ctx context.Context, userID, date string, cost, defaultLimit float64) error

	Close() error
}

// SQLStore implements DB on top of database/sql for both sqlite and
// postgres. Statements are written with ? placeholders and rebound for
// postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLiteDB opens (or creates) a SQLite database at the given path and
// applies pending migrations.
func NewSQLiteDB(dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}

	store := &SQLStore{db: db, driver: "sqlite"}
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}
	return store, nil
}

// NewPostgresDB connects to Postgres using the given DSN and applies
// pending migrations.
func NewPostgresDB(url string) (*SQLStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	store := &SQLStore{db: db, driver: "postgres"}
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}
	return store, nil
}

// Open selects the driver from configuration.
func Open(driver, path, url string) (*SQLStore, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteDB(path)
	case "postgres":
		return NewPostgresDB(url)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// rebind rewrites ? placeholders to $1..$n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
