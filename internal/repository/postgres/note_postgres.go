package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"notka/internal/model"
	"notka/internal/repository"
)

const noteColumns = `id, title, content, page_number, files, created_at`

// NotePostgres is a PostgreSQL implementation of repository.NoteRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Attachments are kept in a JSONB array column so a note stays a single row.
type NotePostgres struct {
	db *sql.DB
}

// NewNotePostgres creates a new NotePostgres repository.
func NewNotePostgres(db *sql.DB) *NotePostgres {
	return &NotePostgres{db: db}
}

var _ repository.NoteRepository = (*NotePostgres)(nil)

// Create inserts a new note row and returns the stored record.
func (r *NotePostgres) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	files, err := encodeFiles(note.Files)
	if err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO notes (id, title, content, page_number, files, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		RETURNING ` + noteColumns
	row := r.db.QueryRowContext(ctx, q,
		note.ID,
		note.Title,
		note.Content,
		nullableInt(note.PageNumber),
		files,
		note.CreatedAt,
	)
	return scanNote(row)
}

// FindByID fetches a single note by its ID.
func (r *NotePostgres) FindByID(ctx context.Context, id string) (*model.Note, error) {
	const q = `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE id = $1
	`
	return scanNote(r.db.QueryRowContext(ctx, q, id))
}

// List returns every note, newest first.
func (r *NotePostgres) List(ctx context.Context) ([]model.Note, error) {
	const q = `
		SELECT ` + noteColumns + `
		FROM notes
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update sets the patched columns; NULL parameters keep the current value.
func (r *NotePostgres) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	const q = `
		UPDATE notes
		SET title = COALESCE($2, title),
			content = COALESCE($3, content),
			page_number = COALESCE($4, page_number)
		WHERE id = $1
		RETURNING ` + noteColumns
	row := r.db.QueryRowContext(ctx, q,
		id,
		nullableString(patch.Title),
		nullableString(patch.Content),
		nullableInt(patch.PageNumber),
	)
	return scanNote(row)
}

// SetFiles replaces the attachment list of a note.
func (r *NotePostgres) SetFiles(ctx context.Context, id string, files []string) (*model.Note, error) {
	encoded, err := encodeFiles(files)
	if err != nil {
		return nil, err
	}
	const q = `
		UPDATE notes
		SET files = $2::jsonb
		WHERE id = $1
		RETURNING ` + noteColumns
	return scanNote(r.db.QueryRowContext(ctx, q, id, encoded))
}

// Delete removes a note by ID.
func (r *NotePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM notes WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*model.Note, error) {
	var (
		n     model.Note
		page  sql.NullInt64
		files []byte
	)
	if err := s.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&page,
		&files,
		&n.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if page.Valid {
		p := int(page.Int64)
		n.PageNumber = &p
	}
	n.Files = []string{}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &n.Files); err != nil {
			return nil, fmt.Errorf("decode files of note %s: %w", n.ID, err)
		}
	}
	return &n, nil
}

func encodeFiles(files []string) (string, error) {
	if files == nil {
		files = []string{}
	}
	b, err := json.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("encode files: %w", err)
	}
	return string(b), nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return int64(*i)
}
