package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/code-editor-backend/internal/apperror"
	"github.com/sakif/code-editor-backend/internal/model"
	"github.com/sakif/code-editor-backend/internal/repository"
)

// Compile-time check that *DB implements repository.CodeFileRepository.
// If a method goes missing the build breaks here, not at a distant call site.
var _ repository.CodeFileRepository = (*DB)(nil)

// Create inserts a new code file and fills in the store-assigned ID and
// timestamps on the passed struct (pointer receiver on the argument — the
// caller sees the populated record).
func (db *DB) Create(ctx context.Context, file *model.CodeFile) error {
	now := time.Now()
	file.CreatedAt = now
	file.UpdatedAt = now

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO code_files (owner_id, language, source_code, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		file.OwnerID,
		file.Language,
		file.SourceCode,
		file.CreatedAt,
		file.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating code file: %w", err)
	}

	// The id column is INTEGER PRIMARY KEY, so LastInsertId is the rowid
	// SQLite just assigned.
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new code file id: %w", err)
	}
	file.ID = id

	return nil
}

// GetByIDAndOwner retrieves a single code file scoped to its owner.
//
// The WHERE clause filters by both id and owner_id in one query — a file
// that exists but belongs to someone else produces the same NotFound as a
// file that doesn't exist at all. That conflation is deliberate: the API
// must not confirm the existence of other users' files.
func (db *DB) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.CodeFile, error) {
	var f model.CodeFile

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, language, source_code, created_at, updated_at
		 FROM code_files
		 WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(
		&f.ID,
		&f.OwnerID,
		&f.Language,
		&f.SourceCode,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Code file")
		}
		return nil, fmt.Errorf("sqlite: getting code file %d: %w", id, err)
	}

	return &f, nil
}

// ListByOwner returns every code file owned by the given user, newest first.
// An owner with no files gets an empty slice, not nil — the handler
// serializes it as [] rather than null.
func (db *DB) ListByOwner(ctx context.Context, ownerID int64) ([]model.CodeFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, language, source_code, created_at, updated_at
		 FROM code_files
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing code files for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	files := make([]model.CodeFile, 0)
	for rows.Next() {
		var f model.CodeFile
		if err := rows.Scan(
			&f.ID, &f.OwnerID, &f.Language, &f.SourceCode,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning code file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating code files: %w", err)
	}

	return files, nil
}

// Update persists changed fields of an existing code file.
//
// The WHERE clause carries owner_id as well as id, so even a caller holding
// a stale or forged struct cannot move the write onto another user's row.
// owner_id itself is never in the SET list — ownership is immutable.
func (db *DB) Update(ctx context.Context, file *model.CodeFile) error {
	file.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE code_files
		 SET language = ?, source_code = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		file.Language,
		file.SourceCode,
		file.UpdatedAt,
		file.ID,
		file.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating code file %d: %w", file.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("Code file")
	}

	return nil
}

// Delete removes a code file, scoped to its owner in the same statement.
// Hard delete — no tombstone row is kept.
func (db *DB) Delete(ctx context.Context, id, ownerID int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM code_files WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting code file %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("Code file")
	}

	return nil
}
