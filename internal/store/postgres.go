package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/geotsn/aggeliesergasias/internal/store/migrations"
	"github.com/geotsn/aggeliesergasias/models"
)

// DBTX is the subset of database/sql used by PostgresStore.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var listingColumns = []string{
	"id", "title", "company", "location", "description", "category", "salary", "phone", "email",
	"type", "payment_status", "is_active", "posted_at", "expires_at", "source", "url",
	"title_en", "title_zh", "title_ru", "title_es", "title_de",
	"description_en", "description_zh", "description_ru", "description_es", "description_de",
	"created_at", "updated_at",
}

// PostgresStore talks to Postgres directly through the pgx stdlib driver.
type PostgresStore struct {
	db    DBTX
	table string
}

// NewPostgresStore wraps db. An empty table name selects DefaultTable.
func NewPostgresStore(db DBTX, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{db: db, table: table}
}

// OpenPostgres opens a pgx-backed *sql.DB and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging postgres")
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, l models.Listing) (models.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	cols := listingColumns[:len(listingColumns)-2]
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING created_at, updated_at",
		s.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	var createdAt, updatedAt time.Time
	err := s.db.QueryRowContext(ctx, query,
		l.ID, l.Title, l.Company, l.Location, l.Description, l.Category, l.Salary, l.Phone, l.Email,
		string(l.Type), paymentStatusArg(l.PaymentStatus), l.IsActive, l.PostedAt, l.ExpiresAt, l.Source, l.URL,
		l.TitleEN, l.TitleZH, l.TitleRU, l.TitleES, l.TitleDE,
		l.DescriptionEN, l.DescriptionZH, l.DescriptionRU, l.DescriptionES, l.DescriptionDE,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return models.Listing{}, errors.Wrap(err, "inserting listing")
	}

	l.CreatedAt = &createdAt
	l.UpdatedAt = &updatedAt
	return l, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(listingColumns, ", "), s.table)

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return models.Listing{}, errors.Wrapf(err, "fetching listing %s", id)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.Listing{}, errors.Wrapf(err, "fetching listing %s", id)
		}
		return models.Listing{}, ErrNotFound
	}
	return scanListing(rows)
}

// ActivatePending relies on the payment_status predicate so that concurrent
// callers race on the row lock and exactly one sees RowsAffected == 1.
func (s *PostgresStore) ActivatePending(ctx context.Context, id string, at time.Time) (int, error) {
	query := fmt.Sprintf(
		"UPDATE %s SET payment_status = 'completed', is_active = true, updated_at = $2 WHERE id = $1 AND payment_status = 'pending'",
		s.table)

	res, err := s.db.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return 0, errors.Wrapf(err, "activating listing %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "reading affected rows")
	}
	return int(n), nil
}

func (s *PostgresStore) FindPendingMatch(ctx context.Context, source, title, company string) (string, error) {
	query := fmt.Sprintf(
		"SELECT id FROM %s WHERE source = $1 AND title = $2 AND company = $3 AND payment_status = 'pending' ORDER BY created_at ASC LIMIT 1",
		s.table)

	var id string
	err := s.db.QueryRowContext(ctx, query, source, title, company).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", ErrNotFound
	case err != nil:
		return "", errors.Wrap(err, "matching pending listing")
	}
	return id, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, q ActiveQuery) ([]models.Listing, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE is_active = true AND (expires_at IS NULL OR expires_at > $1)",
		strings.Join(listingColumns, ", "), s.table)
	args := []any{q.Now.UTC()}
	if q.Category != "" {
		args = append(args, q.Category)
		fmt.Fprintf(&b, " AND category = $%d", len(args))
	}
	b.WriteString(" ORDER BY (type = 'premium') DESC, posted_at DESC NULLS LAST")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing active listings")
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating listings")
	}
	return out, nil
}

func scanListing(rows *sql.Rows) (models.Listing, error) {
	var (
		l             models.Listing
		listingType   string
		paymentStatus sql.NullString
	)
	err := rows.Scan(
		&l.ID, &l.Title, &l.Company, &l.Location, &l.Description, &l.Category, &l.Salary, &l.Phone, &l.Email,
		&listingType, &paymentStatus, &l.IsActive, &l.PostedAt, &l.ExpiresAt, &l.Source, &l.URL,
		&l.TitleEN, &l.TitleZH, &l.TitleRU, &l.TitleES, &l.TitleDE,
		&l.DescriptionEN, &l.DescriptionZH, &l.DescriptionRU, &l.DescriptionES, &l.DescriptionDE,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return models.Listing{}, errors.Wrap(err, "scanning listing")
	}
	l.Type = models.ListingType(listingType)
	if paymentStatus.Valid {
		l.PaymentStatus = models.PaymentStatusPtr(models.PaymentStatus(paymentStatus.String))
	}
	return l, nil
}

func paymentStatusArg(s *models.PaymentStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}
