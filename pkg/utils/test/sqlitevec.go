package testutils

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/ragembed/pkg/vector"
)

// ReadSQLiteVecPoint reads one point written by the sqlitevec driver straight
// from its database file. A missing collection or point wraps sql.ErrNoRows.
func ReadSQLiteVecPoint(ctx context.Context, dbPath, collection string, id uint64) (vector.Point, error) {
	sqlite_vec.Auto()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return vector.Point{}, err
	}
	defer db.Close()

	var table string
	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, collection+"_points",
	).Scan(&table)
	if err != nil {
		return vector.Point{}, fmt.Errorf("collection %s: %w", collection, err)
	}

	var payload string
	err = db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT payload FROM %s_points WHERE id = ?`, collection), int64(id),
	).Scan(&payload)
	if err != nil {
		return vector.Point{}, fmt.Errorf("point %d: %w", id, err)
	}

	p := vector.Point{ID: id}
	if err := json.Unmarshal([]byte(payload), &p.Payload); err != nil {
		return vector.Point{}, fmt.Errorf("decoding payload for point %d: %w", id, err)
	}

	var blob []byte
	err = db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT embedding FROM %s_vectors WHERE rowid = ?`, collection), int64(id),
	).Scan(&blob)
	if err != nil {
		return vector.Point{}, fmt.Errorf("embedding for point %d: %w", id, err)
	}
	if len(blob)%4 != 0 {
		return vector.Point{}, fmt.Errorf("embedding blob for point %d has length %d", id, len(blob))
	}
	p.Vector = make([]float32, len(blob)/4)
	for i := range p.Vector {
		p.Vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}

	return p, nil
}
