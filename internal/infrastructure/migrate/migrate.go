package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"bookshelf-api/pkg/logger"
)

//go:embed migrations/*.sql
var embedded embed.FS

const ensureTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    BIGINT PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Load đọc các cặp "<version>_<name>.up.sql" / ".down.sql" trong dir, sort theo version
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid migration file name %q", name)
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid migration version in %q: %w", name, err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, name)
		}
		seen[version] = name

		up, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("read down migration for %s: %w", name, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    parts[1],
			Up:      string(up),
			Down:    string(down),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Runner apply / rollback migrations và ghi version vào schema_migrations
type Runner struct {
	db         *sqlx.DB
	migrations []Migration
}

func NewRunner(db *sqlx.DB, migrations []Migration) *Runner {
	return &Runner{db: db, migrations: migrations}
}

// NewEmbeddedRunner dùng bộ migrations đi kèm binary
func NewEmbeddedRunner(db *sqlx.DB) (*Runner, error) {
	migrations, err := Load(embedded, "migrations")
	if err != nil {
		return nil, err
	}
	return NewRunner(db, migrations), nil
}

// Open mở kết nối lib/pq qua sqlx, dùng riêng cho cmd/migrate
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	db.SetMaxOpenConns(2)
	return db, nil
}

func (r *Runner) applied(ctx context.Context) (map[int]bool, error) {
	if _, err := r.db.ExecContext(ctx, ensureTableSQL); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var versions []int
	if err := r.db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}

	set := make(map[int]bool, len(versions))
	for _, v := range versions {
		set[v] = true
	}
	return set, nil
}

// Up apply tất cả migrations chưa chạy, mỗi migration trong một transaction.
// Trả về số migrations đã apply
func (r *Runner) Up(ctx context.Context) (int, error) {
	done, err := r.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range r.migrations {
		if done[m.Version] {
			continue
		}

		logger.Info("Applying migration", map[string]interface{}{"migration": m.String()})
		if err := r.inTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name)
			return err
		}); err != nil {
			return count, fmt.Errorf("apply %s: %w", m, err)
		}
		count++
	}
	return count, nil
}

// Down rollback migration mới nhất đã apply. Không có gì để rollback → (nil, nil)
func (r *Runner) Down(ctx context.Context) (*Migration, error) {
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	for i := len(r.migrations) - 1; i >= 0; i-- {
		m := r.migrations[i]
		if !done[m.Version] {
			continue
		}

		logger.Info("Rolling back migration", map[string]interface{}{"migration": m.String()})
		if err := r.inTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Down); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", m.Version)
			return err
		}); err != nil {
			return nil, fmt.Errorf("rollback %s: %w", m, err)
		}
		return &m, nil
	}
	return nil, nil
}

// Status liệt kê migrations kèm trạng thái applied
func (r *Runner) Status(ctx context.Context) (map[string]bool, error) {
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	status := make(map[string]bool, len(r.migrations))
	for _, m := range r.migrations {
		status[m.String()] = done[m.Version]
	}
	return status, nil
}

func (r *Runner) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
