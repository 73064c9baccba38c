// Package migrations holds the ledger schema as explicit DDL, one directory
// per SQL dialect.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Up brings the schema of db to the latest version.
func Up(ctx context.Context, db *gorm.DB) error {
	switch name := db.Dialector.Name(); name {
	case "postgres":
		return upPostgres(ctx, db)
	case "sqlite":
		return upSQLite(ctx, db)
	default:
		return fmt.Errorf("no migrations for dialect %q", name)
	}
}

func upPostgres(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Close()

	src, err := iofs.New(files, "postgres")
	if err != nil {
		return err
	}
	defer src.Close()

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// upSQLite runs the up files in order. Every statement is idempotent, so
// the embedded ledger needs no version table.
func upSQLite(ctx context.Context, db *gorm.DB) error {
	names, err := fs.Glob(files, "sqlite/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := files.ReadFile(name)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(body), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}
