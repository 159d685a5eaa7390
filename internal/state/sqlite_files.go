package state

import (
	"fmt"
	"log/slog"
)

const insertFileResult = `INSERT INTO file_results
	(run_id, path, content_hash, tokens, errors, names, first_error)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (run_id, path) DO UPDATE SET
		content_hash = excluded.content_hash,
		tokens = excluded.tokens,
		errors = excluded.errors,
		names = excluded.names,
		first_error = excluded.first_error`

// RecordFile stores the result of checking one file.
func (s *SQLiteStore) RecordFile(f *FileResult) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.ExecContext(ctx(), insertFileResult,
		f.RunID, f.Path, f.ContentHash, f.Tokens, f.Errors, f.Names, nullString(f.FirstError))
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", f.Path, err)
	}
	return nil
}

// RecordFiles stores many file results in one transaction.
func (s *SQLiteStore) RecordFiles(files []*FileResult) (err error) {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(files) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx(), insertFileResult)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range files {
		if _, err = stmt.ExecContext(ctx(),
			f.RunID, f.Path, f.ContentHash, f.Tokens, f.Errors, f.Names, nullString(f.FirstError)); err != nil {
			return fmt.Errorf("failed to record file %s: %w", f.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file results: %w", err)
	}
	s.logger.Debug("recorded file results", slog.Int("files", len(files)))
	return nil
}

// GetFileResults returns the file results of a run ordered by path.
func (s *SQLiteStore) GetFileResults(runID string) ([]*FileResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT run_id, path, content_hash, tokens, errors, names, COALESCE(first_error, '')
		 FROM file_results WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*FileResult
	for rows.Next() {
		var f FileResult
		if err := rows.Scan(&f.RunID, &f.Path, &f.ContentHash, &f.Tokens, &f.Errors, &f.Names, &f.FirstError); err != nil {
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get file results: %w", err)
	}
	return out, nil
}

// CleanHashes maps each path to its content hash as of the most recent run
// that checked it, for paths whose latest check found no faults.
func (s *SQLiteStore) CleanHashes() (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(), `
		SELECT fr.path, fr.content_hash, fr.errors
		FROM file_results fr
		JOIN runs r ON r.id = fr.run_id
		ORDER BY fr.path, r.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query content hashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hashes := make(map[string]string)
	seen := make(map[string]bool)
	for rows.Next() {
		var (
			path, hash string
			errs       int
		)
		if err := rows.Scan(&path, &hash, &errs); err != nil {
			return nil, fmt.Errorf("failed to scan content hash: %w", err)
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		if errs == 0 {
			hashes[path] = hash
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query content hashes: %w", err)
	}
	return hashes, nil
}
