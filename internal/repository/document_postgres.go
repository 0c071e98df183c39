package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitness-tracker/internal/model"
)

// PostgresDocumentStore keeps one record family as JSONB rows in the shared documents
// table. Dated families set unique_per_date, which the partial unique index
// documents_owner_date_key turns into a store-level (owner, date) constraint.
type PostgresDocumentStore[T Document] struct {
	pool       *pgxpool.Pool
	collection string
	unique     bool
	timeout    time.Duration
}

func NewPostgresDocumentStore[T Document](pool *pgxpool.Pool, collection string, uniquePerDate bool, timeout time.Duration) *PostgresDocumentStore[T] {
	return &PostgresDocumentStore[T]{pool: pool, collection: collection, unique: uniquePerDate, timeout: timeout}
}

func (s *PostgresDocumentStore[T]) Insert(ctx context.Context, doc T) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.collection, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, owner, record_date, unique_per_date, body, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4::text, '')::date, $5, $6, now(), now())`,
		s.collection, doc.RecordID(), doc.RecordOwner(), doc.RecordDate(), s.unique, body)
	switch pgErrorCode(err) {
	case "":
	case pgUniqueViolation:
		return fmt.Errorf("insert %s for %s: %w", s.collection, doc.RecordDate(), model.ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("insert %s: %w", s.collection, model.ErrUnauthenticated)
	}
	if err != nil {
		return upstream("insert "+s.collection, err)
	}
	return nil
}

func (s *PostgresDocumentStore[T]) FindByID(ctx context.Context, id string) (T, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		s.collection, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, fmt.Errorf("find %s %s: %w", s.collection, id, model.ErrNotFound)
	}
	if err != nil {
		var zero T
		return zero, upstream("find "+s.collection, err)
	}
	return s.decode(body)
}

func (s *PostgresDocumentStore[T]) decode(body []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", s.collection, err)
	}
	return doc, nil
}

func (s *PostgresDocumentStore[T]) FindByOwner(ctx context.Context, owner string, window model.DateRange) ([]T, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT body FROM documents
		 WHERE collection = $1 AND owner = $2
		   AND ($3::text = '' OR record_date >= $3::text::date)
		   AND ($4::text = '' OR record_date <= $4::text::date)
		 ORDER BY record_date, id`,
		s.collection, owner, window.From, window.To)
	if err != nil {
		return nil, upstream("list "+s.collection, err)
	}
	defer rows.Close()

	docs := make([]T, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, upstream("scan "+s.collection, err)
		}
		doc, err := s.decode(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("list "+s.collection, err)
	}
	return docs, nil
}

func (s *PostgresDocumentStore[T]) FindByOwnerAndDate(ctx context.Context, owner string, date string) (T, error) {
	docs, err := s.FindByOwner(ctx, owner, model.DateRange{From: date, To: date})
	if err != nil {
		var zero T
		return zero, err
	}
	if len(docs) == 0 {
		var zero T
		return zero, fmt.Errorf("find %s for %s: %w", s.collection, date, model.ErrNotFound)
	}
	return docs[0], nil
}

func (s *PostgresDocumentStore[T]) Replace(ctx context.Context, doc T) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.collection, err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET owner = $3, record_date = NULLIF($4::text, '')::date, body = $5, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		s.collection, doc.RecordID(), doc.RecordOwner(), doc.RecordDate(), body)
	if pgErrorCode(err) == pgUniqueViolation {
		return fmt.Errorf("replace %s for %s: %w", s.collection, doc.RecordDate(), model.ErrConflict)
	}
	if err != nil {
		return upstream("replace "+s.collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("replace %s %s: %w", s.collection, doc.RecordID(), model.ErrNotFound)
	}
	return nil
}

func (s *PostgresDocumentStore[T]) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, s.collection, id)
	if err != nil {
		return upstream("delete "+s.collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s %s: %w", s.collection, id, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresDocumentStore[T]) ExistsForOwnerAndDate(ctx context.Context, owner string, date string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM documents
		   WHERE collection = $1 AND owner = $2 AND record_date = $3::text::date)`,
		s.collection, owner, date).Scan(&exists)
	if err != nil {
		return false, upstream("check "+s.collection+" exists", err)
	}
	return exists, nil
}
