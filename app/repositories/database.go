package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"folio/app/models"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// OpenDB opens a bun database for driver ("sqlite" or "postgres").
func OpenDB(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case "sqlite":
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite serialises writers; one connection avoids "database is locked".
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates tables and indexes when they do not exist.
func Migrate(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		model      any
		foreignKey string
	}{
		{model: (*models.Post)(nil)},
		{model: (*models.Comment)(nil), foreignKey: `("post_id") REFERENCES "posts" ("id") ON DELETE CASCADE`},
		{model: (*models.PageView)(nil)},
		{model: (*models.Account)(nil)},
	}
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		if t.foreignKey != "" {
			q = q.ForeignKey(t.foreignKey)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*models.Comment)(nil), "comments_post_id_idx", "post_id"},
		{(*models.PageView)(nil), "page_views_url_idx", "url"},
		{(*models.PageView)(nil), "page_views_date_idx", "date"},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// dayExpr formats a timestamp column as YYYY-MM-DD for the active dialect.
func dayExpr(db *bun.DB, column string) string {
	if db.Dialect().Name() == dialect.PG {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", column)
	}
	return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", column)
}
