package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Options carries the connection and pool settings for Open.  The pool
// limits come from configuration so deployments can size them to their
// MySQL instance instead of inheriting compiled-in defaults.
type Options struct {
	User, Pass       string
	Host, Port, Name string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// Open connects to MySQL, applies the pool settings and verifies the
// connection with a short ping.  A failed ping is returned to the caller,
// which treats it as fatal at startup.
func Open(opts Options) (*sql.DB, error) {
	auth := opts.User
	if opts.Pass != "" {
		auth = fmt.Sprintf("%s:%s", opts.User, opts.Pass)
	}
	// parseTime=true maps DATETIME to time.Time; loc=UTC keeps every
	// timestamp comparison consistent with the UTC_TIMESTAMP() queries.
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, opts.Host, opts.Port, opts.Name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
