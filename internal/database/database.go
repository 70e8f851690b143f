// /internal/database/database.go
package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/config"
	"github.com/ericoliveiras/shopeasy/internal/model"
)

// Open abre a conexão com o banco indicado pelo driver. Os logs do gorm vão para log.
// Com SQLite o pool fica limitado a uma conexão: cada transação roda sozinha.
func Open(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL vazio")
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(log),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("driver de banco desconhecido: %q", driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("falha ao obter sql.DB: %w", err)
	}
	if driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("falha ao fazer ping no banco de dados: %w", err)
	}
	return db, nil
}

// Connect abre o banco descrito na Config e executa as migrações.
func Connect(cfg config.Config, log *slog.Logger) (*gorm.DB, error) {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// --- Auto Migration  ---
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{}, &model.Product{}, &model.Cart{}, &model.CartItem{}, &model.Order{}, &model.OrderItem{},
	)
	if err != nil {
		return fmt.Errorf("falha ao executar migrações: %w", err)
	}
	return nil
}

// IsUniqueViolation reconhece violação de UNIQUE no Postgres (23505) e no SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}
