package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/poyrazK/cloudKeys/internal/core/domain"
)

// Dialect selects placeholder syntax for SQLRepository.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		key_hash TEXT NOT NULL,
		key_prefix TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_tenant ON api_keys(tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_lookup ON api_keys(tenant_id, key_hash)`,
}

// SQLRepository implements ports.KeyRepository on database/sql.
// Secrets are never stored; only their SHA-256 hash and a short prefix are,
// so ListKeys returns keys with an empty Secret.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func newSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, now: time.Now}
}

// HashSecret returns the hex SHA-256 digest stored in place of a secret.
func HashSecret(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}

// Migrate creates the api_keys table and its indexes if they do not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return domain.NewInternalError("migrate", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLRepository) CreateKey(ctx context.Context, tenantID string, key domain.APIKey) error {
	query := r.rebind(`INSERT INTO api_keys (id, tenant_id, name, key_hash, key_prefix, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, key.ID, tenantID, key.Name, HashSecret(key.Secret), domain.KeyPrefix(key.Secret), r.now().UTC())
	if err != nil {
		return domain.NewInternalError("create key", err)
	}
	return nil
}

func (r *SQLRepository) ListKeys(ctx context.Context, tenantID string) ([]domain.APIKey, error) {
	query := r.rebind(`SELECT id, name FROM api_keys WHERE tenant_id = ? ORDER BY created_at, id`)
	rows, errQuery := r.db.QueryContext(ctx, query, tenantID)
	if errQuery != nil {
		return nil, domain.NewInternalError("list keys", errQuery)
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	keys := []domain.APIKey{}
	for rows.Next() {
		var k domain.APIKey
		if errScan := rows.Scan(&k.ID, &k.Name); errScan != nil {
			return nil, domain.NewInternalError("list keys", errScan)
		}
		keys = append(keys, k)
	}
	if errRows := rows.Err(); errRows != nil {
		return nil, domain.NewInternalError("list keys", errRows)
	}
	return keys, nil
}

func (r *SQLRepository) DeleteKey(ctx context.Context, tenantID string, keyID string) error {
	query := r.rebind(`DELETE FROM api_keys WHERE id = ? AND tenant_id = ?`)
	res, err := r.db.ExecContext(ctx, query, keyID, tenantID)
	if err != nil {
		return domain.NewInternalError("delete key", err)
	}
	return expectOneRow(res, "delete key")
}

func (r *SQLRepository) UpdateKey(ctx context.Context, tenantID string, key domain.APIKey) error {
	query := r.rebind(`UPDATE api_keys SET name = ?, key_hash = ?, key_prefix = ? WHERE id = ? AND tenant_id = ?`)
	res, err := r.db.ExecContext(ctx, query, key.Name, HashSecret(key.Secret), domain.KeyPrefix(key.Secret), key.ID, tenantID)
	if err != nil {
		return domain.NewInternalError("update key", err)
	}
	return expectOneRow(res, "update key")
}

func (r *SQLRepository) LookupKey(ctx context.Context, tenantID string, secret string) (*domain.APIKey, error) {
	query := r.rebind(`SELECT id, name FROM api_keys WHERE tenant_id = ? AND key_hash = ? LIMIT 1`)
	k := domain.APIKey{Secret: secret}
	errRow := r.db.QueryRowContext(ctx, query, tenantID, HashSecret(secret)).Scan(&k.ID, &k.Name)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, domain.NewInternalError("lookup key", errRow)
	}
	return &k, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewInternalError(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
