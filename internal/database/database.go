// Package database extracts the two product tables that were already loaded
// and flagged in the MySQL regulatory database.
package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/source"
)

const (
	TagSephora  = "db_sephora"
	TagSkincare = "db_skincare"

	// DefaultMaxOpenConns bounds the pool; queries run one after another.
	DefaultMaxOpenConns = 2
	// DefaultMaxIdleConns is the number of idle connections kept.
	DefaultMaxIdleConns = 1
	// DefaultConnMaxLifetime is the maximum connection lifetime.
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout bounds the connectivity probe.
	DefaultPingTimeout = 5 * time.Second
	// DefaultDialTimeout bounds establishing a TCP connection.
	DefaultDialTimeout = 10 * time.Second
)

// MySQL server error numbers.
const (
	erAccessDenied   = 1045
	erDBAccessDenied = 1044
	erBadDB          = 1049
	erNoSuchTable    = 1146
)

// Query is one table read.
type Query struct {
	Tag   string
	Table string
	SQL   string
}

// Queries are executed in order. Flag and count columns are computed when the
// tables are loaded and are passed through as stored.
var Queries = []Query{
	{
		Tag:   TagSephora,
		Table: "sephora_products",
		SQL: `SELECT product_id, product_name, brand_name, product_type, price_usd, rating,
       has_restricted_ingredient, has_cmr, restricted_ingredient_count, cmr_count
FROM sephora_products
WHERE product_name IS NOT NULL
ORDER BY product_id`,
	},
	{
		Tag:   TagSkincare,
		Table: "skincare_products",
		SQL: `SELECT brand, product_name, product_type, price, rating,
       has_restricted_ingredient, has_cmr, restricted_ingredient_count, cmr_count
FROM skincare_products
WHERE product_name IS NOT NULL
ORDER BY brand, product_name`,
	},
}

// Config holds the connection settings.
type Config struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
}

// DSN renders the go-sql-driver/mysql data source name.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	port := c.Port
	if port <= 0 {
		port = 3306
	}
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
	mc.DBName = c.DBName
	mc.Timeout = DefaultDialTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Extractor opens one pool for the duration of Extract and closes it before
// returning.
type Extractor struct {
	Config Config
	// Open returns an unconnected pool for dsn. Nil uses the mysql driver.
	Open func(dsn string) (*sqlx.DB, error)
	// Queries overrides the default table reads.
	Queries []Query
}

func (e *Extractor) Name() string { return "database" }

// Tags lists one table per query.
func (e *Extractor) Tags() []string {
	qs := e.queries()
	tags := make([]string, len(qs))
	for i, q := range qs {
		tags[i] = q.Tag
	}
	return tags
}

func (e *Extractor) queries() []Query {
	if len(e.Queries) > 0 {
		return e.Queries
	}
	return Queries
}

// Extract returns one result per query. When the database cannot be reached
// or rejects the credentials every table fails with the same error.
func (e *Extractor) Extract(ctx context.Context) []source.Result {
	queries := e.queries()
	log.Info().Str("host", e.Config.Host).Int("port", e.Config.Port).Str("db", e.Config.DBName).Msg("connecting to MySQL")

	db, err := e.connect(ctx)
	if err != nil {
		log.Error().Err(err).Str("kind", string(source.Classify(err))).Msg("MySQL unavailable; skipping database source")
		return failAll(queries, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing MySQL pool")
		}
	}()
	log.Info().Msg("MySQL connection ok")

	results := make([]source.Result, 0, len(queries))
	for _, q := range queries {
		t, err := readTable(ctx, db, q.SQL)
		if err != nil {
			err = classify(fmt.Errorf("%s: %w", q.Table, err))
			log.Error().Err(err).Str("table", q.Table).Msg("table extraction failed")
			results = append(results, source.Failed(q.Tag, err))
			continue
		}
		log.Info().Str("table", q.Table).Int("rows", t.Len()).Msg("table extracted")
		results = append(results, source.Succeeded(q.Tag, t))
	}
	return results
}

func (e *Extractor) connect(ctx context.Context) (*sqlx.DB, error) {
	open := e.Open
	if open == nil {
		open = func(dsn string) (*sqlx.DB, error) { return sqlx.Open("mysql", dsn) }
	}
	db, err := open(e.Config.DSN())
	if err != nil {
		return nil, connectError(err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, connectError(err)
	}
	return db, nil
}

// readTable scans every row generically, keeping the column names reported
// by the server.
func readTable(ctx context.Context, db *sqlx.DB, query string) (source.Table, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return source.Table{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return source.Table{}, err
	}
	t := source.NewTable(cols...)
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return source.Table{}, err
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = cell(v)
		}
		t.Append(row)
	}
	if err := rows.Err(); err != nil {
		return source.Table{}, err
	}
	return t, nil
}

// cell renders a scanned value. NULL becomes an empty cell.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func connectError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == erAccessDenied || me.Number == erDBAccessDenied) {
		return fmt.Errorf("%w: %v", source.ErrAuthentication, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: database unreachable: %v", source.ErrMissingResource, err)
}

func classify(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erAccessDenied, erDBAccessDenied:
			return fmt.Errorf("%w: %v", source.ErrAuthentication, err)
		case erBadDB, erNoSuchTable:
			return fmt.Errorf("%w: %v", source.ErrMissingResource, err)
		}
	}
	if source.Classify(err) == source.KindUnexpected {
		return fmt.Errorf("%w: %v", source.ErrUnexpected, err)
	}
	return err
}

func failAll(queries []Query, err error) []source.Result {
	out := make([]source.Result, 0, len(queries))
	for _, q := range queries {
		out = append(out, source.Failed(q.Tag, err))
	}
	return out
}
