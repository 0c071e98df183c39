package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fitness-tracker/internal/model"
)

type AuditRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewAuditRepository(pool *pgxpool.Pool, timeout time.Duration) *AuditRepository {
	return &AuditRepository{pool: pool, timeout: timeout}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var detailJSON []byte
	if len(entry.Detail) > 0 {
		var err error
		detailJSON, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries (action, occurred_at, actor, actor_ip, status, resource, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.Action, entry.OccurredAt, entry.Actor, entry.IP, entry.Status, entry.Resource, detailJSON)
	if err != nil {
		return upstream("log audit entry", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	page, limit := normalizePage(query.Page, query.Limit)

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if actor := strings.TrimSpace(query.Actor); actor != "" {
		args = append(args, actor)
		where = append(where, fmt.Sprintf("actor = $%d", len(args)))
	}
	if action := strings.TrimSpace(query.Action); action != "" {
		args = append(args, action)
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, upstream("count audit entries", err)
	}

	args = append(args, limit, (page-1)*limit)
	dataQuery := fmt.Sprintf(
		`SELECT id, action, occurred_at, actor, actor_ip, status, resource, detail
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, upstream("query audit entries", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var detailJSON []byte

		if err := rows.Scan(&e.ID, &e.Action, &e.OccurredAt, &e.Actor, &e.IP, &e.Status, &e.Resource, &detailJSON); err != nil {
			return nil, model.Meta{}, upstream("scan audit entry", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()

		if len(detailJSON) > 0 {
			_ = json.Unmarshal(detailJSON, &e.Detail)
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Meta{}, upstream("query audit entries", err)
	}

	return entries, pageMeta(page, limit, total), nil
}
