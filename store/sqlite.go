package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	models "github.com/phillip/chama-tracker-go/models"
)

// SQLite keeps the serialized document in one row keyed by id.
type SQLite struct {
	db   *sql.DB
	id   string
	path string
}

func NewSQLite(dbPath, id string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, id: id, path: dbPath}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Close(_ context.Context) error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context) (*Snapshot, error) {
	var body, sha string
	err := s.db.QueryRowContext(ctx, `SELECT body, sha FROM documents WHERE id = ?`, s.id).Scan(&body, &sha)
	if errors.Is(err, sql.ErrNoRows) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select document %s: %w", s.id, err)
	}
	doc, err := Decode([]byte(body))
	if err != nil {
		return nil, err
	}
	return &Snapshot{Document: doc, SHA: sha, Exists: true}, nil
}

func (s *SQLite) Save(ctx context.Context, doc *models.Document, expectedSHA string) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	sha := ContentSHA(data)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var res sql.Result
	if expectedSHA == "" {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO documents (id, body, sha, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
			s.id, string(data), sha, now)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE documents SET body = ?, sha = ?, updated_at = ? WHERE id = ? AND sha = ?`,
			string(data), sha, now, s.id, expectedSHA)
	}
	if err != nil {
		return "", fmt.Errorf("write document %s: %w", s.id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("write document %s: %w", s.id, err)
	}
	if n == 0 {
		return "", ErrConflict
	}
	return sha, nil
}

func (s *SQLite) List(ctx context.Context) ([]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, sha, length(body), updated_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	files := []FileInfo{}
	for rows.Next() {
		var (
			info    FileInfo
			updated string
		)
		if err := rows.Scan(&info.Name, &info.SHA, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		info.Path = s.path + "#" + info.Name
		info.ModTime, _ = time.Parse(time.RFC3339Nano, updated)
		files = append(files, info)
	}
	return files, rows.Err()
}
