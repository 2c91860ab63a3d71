/*
Package mbtiles implements reading and writing of MBTiles tilesets.

An MBTiles tileset is an SQLite database holding a metadata table of name and
value pairs and a tiles table of image blobs addressed by zoom level, column
and row. Rows are stored in TMS order, counting up from the south, this
package converts to and from the XYZ order used by maptile.Tile.
*/
package mbtiles

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb/maptile"
)

var errInvalidTile = errors.New("mbtiles: invalid tile")

// DB is an open MBTiles tileset.
type DB struct {
	db *sql.DB
}

// Open opens the tileset in file, creating it if it doesn't exist.
func Open(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS metadata (name TEXT NOT NULL UNIQUE, value TEXT)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS tiles (zoom_level INTEGER NOT NULL, tile_column INTEGER NOT NULL, tile_row INTEGER NOT NULL, tile_data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row)"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the tileset.
func (db *DB) Close() error {
	return db.db.Close()
}

// flipY converts between XYZ and TMS row numbering, it is its own inverse.
func flipY(y uint32, z maptile.Zoom) uint32 {
	return 1<<uint32(z) - 1 - y
}

func valid(t maptile.Tile) bool {
	return t.Z < 32 && uint64(t.X) < 1<<uint64(t.Z) && uint64(t.Y) < 1<<uint64(t.Z)
}

// ReadTile returns the raw data for tile t. If the tile does not exist nil
// is returned with no error.
func (db *DB) ReadTile(t maptile.Tile) ([]byte, error) {
	if !valid(t) {
		return nil, nil
	}

	var data []byte
	switch err := db.db.QueryRow("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?", t.Z, t.X, flipY(t.Y, t.Z)).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return data, nil
	default:
		return nil, err
	}
}

// WriteTile stores data for tile t, replacing any existing data.
func (db *DB) WriteTile(t maptile.Tile, data []byte) error {
	if !valid(t) {
		return fmt.Errorf("%w: %d/%d/%d", errInvalidTile, t.Z, t.X, t.Y)
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)", t.Z, t.X, flipY(t.Y, t.Z), data); err != nil {
		return err
	}
	return nil
}

// Tiles returns every tile stored at zoom level z, ordered by row and then
// column from the north west corner.
func (db *DB) Tiles(z maptile.Zoom) ([]maptile.Tile, error) {
	rows, err := db.db.Query("SELECT tile_column, tile_row FROM tiles WHERE zoom_level = ? ORDER BY tile_row DESC, tile_column ASC", z)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiles []maptile.Tile
	for rows.Next() {
		var x, y uint32
		if err := rows.Scan(&x, &y); err != nil {
			return nil, err
		}
		tiles = append(tiles, maptile.New(x, flipY(y, z), z))
	}

	return tiles, rows.Err()
}

// Metadata returns the value of the metadata row with the given name. If
// there is no such row an empty string is returned with no error.
func (db *DB) Metadata(name string) (string, error) {
	var value sql.NullString
	switch err := db.db.QueryRow("SELECT value FROM metadata WHERE name = ?", name).Scan(&value); err {
	case sql.ErrNoRows:
		return "", nil
	case nil:
		return value.String, nil
	default:
		return "", err
	}
}

// SetMetadata sets the metadata row with the given name.
func (db *DB) SetMetadata(name, value string) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", name, value); err != nil {
		return err
	}
	return nil
}
