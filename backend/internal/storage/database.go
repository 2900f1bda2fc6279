package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrConflict нарушено ограничение уникальности
	ErrConflict = errors.New("unique constraint violated")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Querier общий интерфейс *sqlx.DB и *sqlx.Tx
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Database обертка над sqlx.DB
type Database struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewDatabase создает новое подключение к БД
func NewDatabase(driver, dsn string, logger *zap.Logger) (*Database, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	if driver == DriverSQLite {
		// in-memory база живет ровно в одном соединении
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Проверка соединения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established", zap.String("driver", driver))

	return &Database{
		db:     db,
		logger: logger,
	}, nil
}

// Close закрывает подключение к БД
func (d *Database) Close() error {
	return d.db.Close()
}

// Conn соединение для запросов вне транзакции
func (d *Database) Conn() Querier {
	return d.db
}

// Migrate создает схему, если ее еще нет
func (d *Database) Migrate(ctx context.Context) error {
	statements := postgresSchema
	if d.db.DriverName() == DriverSQLite {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	d.logger.Info("Database schema is up to date")
	return nil
}

// BeginTx поддержка транзакций
func (d *Database) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return d.db.BeginTxx(ctx, nil)
}

// WithTx выполняет fn в транзакции: commit при nil, иначе rollback
func (d *Database) WithTx(ctx context.Context, fn func(tx Querier) error) error {
	tx, err := d.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			d.logger.Warn("Transaction rollback failed", zap.Error(rbErr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	return nil
}

// HealthCheck проверка здоровья БД
func (d *Database) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// notFound переводит sql.ErrNoRows в ErrNotFound
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// conflict заменяет нарушение уникальности (postgres 23505, sqlite UNIQUE) на ErrConflict
func conflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %s", ErrConflict, liteErr.Error())
	}
	return err
}
