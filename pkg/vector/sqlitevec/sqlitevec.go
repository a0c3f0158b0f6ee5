// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/ragembed/pkg/vector"
)

// collectionName restricts collections to names usable as table prefixes.
var collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
// Each collection is a pair of tables: <collection>_points holds ids and
// JSON payloads, <collection>_vectors is a vec0 table keyed by the same id.
type SQLiteVecDriver struct {
	db         *sql.DB
	dimensions uint
	logger     *slog.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *slog.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", vector.ErrConnection, err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &SQLiteVecDriver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
		ready:      make(map[string]bool),
	}, nil
}

// ensureCollection creates the collection's tables on first use.
func (d *SQLiteVecDriver) ensureCollection(ctx context.Context, collection string) error {
	if !collectionName.MatchString(collection) {
		return fmt.Errorf("invalid sqlite-vec collection name %q", collection)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready[collection] {
		return nil
	}

	createPoints := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_points (
			id INTEGER PRIMARY KEY,
			payload TEXT NOT NULL DEFAULT '{}'
		)
	`, collection)
	if _, err := d.db.ExecContext(ctx, createPoints); err != nil {
		return fmt.Errorf("creating points table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s_vectors USING vec0(embedding float[%d])`,
		collection, d.dimensions,
	)
	if _, err := d.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	d.ready[collection] = true
	return nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Upsert stores points in collection, replacing points with the same id.
func (d *SQLiteVecDriver) Upsert(ctx context.Context, collection string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p.ID > math.MaxInt64 {
			return fmt.Errorf("%w: id %d exceeds sqlite integer range", vector.ErrInvalidPoint, p.ID)
		}
		if uint(len(p.Vector)) != d.dimensions {
			return fmt.Errorf("%w: point %d has %d dimensions, want %d", vector.ErrInvalidPoint, p.ID, len(p.Vector), d.dimensions)
		}
	}

	if err := d.ensureCollection(ctx, collection); err != nil {
		return fmt.Errorf("%w: %w", vector.ErrUpsert, err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", vector.ErrUpsert, err)
	}
	defer tx.Rollback()

	upsertPoint := fmt.Sprintf(`
		INSERT INTO %s_points(id, payload) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`, collection)
	deleteVec := fmt.Sprintf(`DELETE FROM %s_vectors WHERE rowid = ?`, collection)
	insertVec := fmt.Sprintf(`INSERT INTO %s_vectors(rowid, embedding) VALUES (?, ?)`, collection)

	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("%w: encoding payload for point %d: %w", vector.ErrInvalidPoint, p.ID, err)
		}

		id := int64(p.ID)
		if _, err := tx.ExecContext(ctx, upsertPoint, id, string(payload)); err != nil {
			return fmt.Errorf("%w: writing point %d: %w", vector.ErrUpsert, p.ID, err)
		}

		// vec0 does not support UPDATE
		if _, err := tx.ExecContext(ctx, deleteVec, id); err != nil {
			return fmt.Errorf("%w: deleting old embedding for point %d: %w", vector.ErrUpsert, p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertVec, id, serializeFloat32(p.Vector)); err != nil {
			return fmt.Errorf("%w: inserting embedding for point %d: %w", vector.ErrUpsert, p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", vector.ErrUpsert, err)
	}

	d.logger.Debug("upserted points to sqlite-vec",
		"collection", collection,
		"count", len(points),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*SQLiteVecDriver)(nil)
