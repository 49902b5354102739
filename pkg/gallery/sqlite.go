package gallery

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps images in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the gallery database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("gallery: mkdir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("gallery: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("gallery: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Add(ctx context.Context, img SavedImage) error {
	cfg, err := json.Marshal(img.BuildingConfig)
	if err != nil {
		return fmt.Errorf("gallery: encode config: %w", err)
	}
	pos, _ := json.Marshal(img.CameraPosition)
	target, _ := json.Marshal(img.CameraTarget)

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO saved_images (id, name, data_url, timestamp, building_config, camera_position, camera_target)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, img.ID, img.Name, img.DataURL, img.Timestamp, string(cfg), string(pos), string(target))
	if err != nil {
		return fmt.Errorf("gallery: insert %s: %w", img.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, name, data_url, timestamp, building_config, camera_position, camera_target FROM saved_images`

func (s *SQLiteStore) List(ctx context.Context) ([]SavedImage, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY timestamp DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("gallery: list: %w", err)
	}
	defer rows.Close()

	var out []SavedImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gallery: list: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (SavedImage, error) {
	img, err := scanImage(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return SavedImage{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return img, err
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("gallery: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, term string) ([]SavedImage, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterByName(all, term), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(row scanner) (SavedImage, error) {
	var (
		img              SavedImage
		cfg, pos, target string
	)
	if err := row.Scan(&img.ID, &img.Name, &img.DataURL, &img.Timestamp, &cfg, &pos, &target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return img, err
		}
		return img, fmt.Errorf("gallery: scan: %w", err)
	}
	if err := json.Unmarshal([]byte(cfg), &img.BuildingConfig); err != nil {
		return img, fmt.Errorf("gallery: decode config of %s: %w", img.ID, err)
	}
	if err := json.Unmarshal([]byte(pos), &img.CameraPosition); err != nil {
		return img, fmt.Errorf("gallery: decode camera of %s: %w", img.ID, err)
	}
	if err := json.Unmarshal([]byte(target), &img.CameraTarget); err != nil {
		return img, fmt.Errorf("gallery: decode camera of %s: %w", img.ID, err)
	}
	return img, nil
}

var _ Store = (*SQLiteStore)(nil)
