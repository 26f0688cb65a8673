package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// SQLRepository reads carts from the cart module's tables. The same
// queries run on postgres (production) and sqlite (local runs, tests).
type SQLRepository struct {
	db     *sql.DB
	driver string
}

func NewPostgresRepository(cred *Credentials) (*SQLRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open(driverPostgres, psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &SQLRepository{db: db, driver: driverPostgres}, nil
}

func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	db, err := sql.Open(driverSQLite, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)
	return &SQLRepository{db: db, driver: driverSQLite}, nil
}

// RunMigrations applies the schema found under migrationsPath/<driver>.
func (r *SQLRepository) RunMigrations(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case driverPostgres:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{
			MigrationsTable: "pricing_schema_migrations",
		})
	case driverSQLite:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", r.driver)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s/%s", migrationsPath, r.driver),
		r.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *SQLRepository) GetActiveCart(ctx context.Context, sessionID string, hubID int64) (*domain.Cart, error) {
	query := `SELECT id, session_id, hub_id, status, total, updated_at
	          FROM carts
	          WHERE session_id = $1 AND hub_id = $2 AND status = $3
	          ORDER BY updated_at DESC, id DESC
	          LIMIT 1`

	cart, err := scanCart(r.db.QueryRowContext(ctx, query, sessionID, hubID, string(domain.CartStatusActive)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query active cart: %w", err)
	}
	return cart, nil
}

func (r *SQLRepository) GetCart(ctx context.Context, cartID int64) (*domain.Cart, error) {
	query := `SELECT id, session_id, hub_id, status, total, updated_at
	          FROM carts WHERE id = $1`

	cart, err := scanCart(r.db.QueryRowContext(ctx, query, cartID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by id: %w", err)
	}
	return cart, nil
}

// GetCartLines reads the cart row and its items in one statement so the
// existence check and the lines come from the same snapshot.
func (r *SQLRepository) GetCartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	query := `SELECT c.id, i.id, i.product_id, i.quantity, i.line_total
	          FROM carts c
	          LEFT JOIN cart_items i ON i.cart_id = c.id
	          WHERE c.id = $1
	          ORDER BY i.id`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	found := false
	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var (
			cID       int64
			lineID    sql.NullInt64
			productID sql.NullInt64
			quantity  sql.NullInt32
			lineTotal decimal.NullDecimal
		)
		if err := rows.Scan(&cID, &lineID, &productID, &quantity, &lineTotal); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		found = true
		if !lineID.Valid {
			continue // cart without items
		}
		lines = append(lines, domain.CartLine{
			ID:        lineID.Int64,
			CartID:    cID,
			ProductID: productID.Int64,
			Quantity:  quantity.Int32,
			LineTotal: lineTotal.Decimal,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if !found {
		return nil, ErrCartNotFound
	}
	return lines, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func scanCart(row *sql.Row) (*domain.Cart, error) {
	var (
		cart   domain.Cart
		status string
	)
	if err := row.Scan(&cart.ID, &cart.SessionID, &cart.HubID, &status, &cart.Total, &cart.UpdatedAt); err != nil {
		return nil, err
	}
	cart.Status = domain.CartStatus(status)
	return &cart, nil
}
