package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lernecken/internal/config"
	"lernecken/internal/domain"
	"lernecken/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	tableBookings   = "bookings"
	tableStatistics = "statistics"
)

// DB implements domain.Storage on top of sqlite3 or postgres.
// A DB returned to a WithinTx callback routes every statement through the
// open transaction.
type DB struct {
	conn   *sqlx.DB
	ext    sqlx.ExtContext
	inTx   bool
	driver string
	sb     sq.StatementBuilderType
	loc    *time.Location
	logger *zerolog.Logger
}

var _ domain.Storage = (*DB)(nil)

// NewDB opens (and migrates) a sqlite database at path. ":memory:" is accepted.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.Open(config.DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: keeps :memory: shared and serializes writers
	conn.SetMaxOpenConns(1)

	return initDB(conn, config.DriverSQLite, logger)
}

// NewPostgresDB connects to postgres using lib/pq.
func NewPostgresDB(cfg config.PostgresConfig, maxOpen int, logger *zerolog.Logger) (*DB, error) {
	conn, err := sqlx.Open(config.DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen == 0 {
		maxOpen = cfg.MaxConnections
	}
	if maxOpen > 0 {
		conn.SetMaxOpenConns(maxOpen)
	}

	return initDB(conn, config.DriverPostgres, logger)
}

// Connect picks the driver configured in cfg.
func Connect(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresDB(cfg.Postgres, cfg.MaxOpenConns, logger)
	case config.DriverSQLite, "":
		return NewDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func initDB(conn *sqlx.DB, driver string, logger *zerolog.Logger) (*DB, error) {
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		conn:   conn,
		ext:    conn,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholderFor(driver)),
		loc:    time.Local,
		logger: logger,
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", driver).Msg("Database initialized")
	return db, nil
}

func placeholderFor(driver string) sq.PlaceholderFormat {
	if driver == config.DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (db *DB) migrate() error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == config.DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	queries := []string{
		// Таблица бронирований, один слот на помещение
		`CREATE TABLE IF NOT EXISTS bookings (
            id ` + idColumn + `,
            username TEXT NOT NULL,
            facility TEXT NOT NULL,
            date TEXT NOT NULL,
            created_at TEXT NOT NULL,
            UNIQUE (date, facility)
        )`,
		// Накопленная статистика по неделям
		`CREATE TABLE IF NOT EXISTS statistics (
            id ` + idColumn + `,
            calendar_week INTEGER NOT NULL,
            year INTEGER NOT NULL,
            facility TEXT NOT NULL CHECK (facility <> ''),
            bookings INTEGER NOT NULL DEFAULT 0,
            UNIQUE (calendar_week, year, facility)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_username_date ON bookings(username, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// WithinTx runs fn inside a transaction. Nested calls reuse the outer one.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Storage) error) (err error) {
	if db.inTx {
		return fn(ctx, db)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error().Err(rbErr).Msg("Rollback failed")
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	txDB := *db
	txDB.ext = tx
	txDB.inTx = true

	return fn(ctx, &txDB)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the sql driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) formatTime(t time.Time) string {
	return t.In(db.loc).Format(models.DateLayout)
}

func (db *DB) parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, s, db.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func (db *DB) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := db.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) get(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.GetContext(ctx, db.ext, dest, query, args...)
}

func (db *DB) selectRows(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, db.ext, dest, query, args...)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
