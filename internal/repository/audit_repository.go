package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/suite-exchange/internal/model"
)

// AuditRepo appends to and reads from audit_events.  There is no update or
// delete path.
type AuditRepo struct{ q Querier }

func NewAuditRepo(q Querier) *AuditRepo { return &AuditRepo{q: q} }

// AppendAudit inserts e and populates its ID.
func (r *AuditRepo) AppendAudit(ctx context.Context, e *model.AuditEvent) error {
	var actor sql.NullInt64
	if e.ActorID != nil {
		actor = sql.NullInt64{Int64: int64(*e.ActorID), Valid: true}
	}
	var meta any
	if len(e.Metadata) > 0 {
		meta = string(e.Metadata)
	}
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO audit_events (event_id, actor_id, action, target_type, target_id, metadata,
		                           ip_address, user_agent, request_id, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		e.EventID, actor, e.Action, e.TargetType, e.TargetID, meta,
		e.IPAddress, e.UserAgent, e.RequestID, e.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListAuditEvents returns the newest events matching f.
func (r *AuditRepo) ListAuditEvents(ctx context.Context, f AuditFilter) ([]model.AuditEvent, error) {
	var where []string
	var args []any
	if f.Action != "" {
		where = append(where, "action=?")
		args = append(args, f.Action)
	}
	if f.TargetType != "" {
		where = append(where, "target_type=?")
		args = append(args, f.TargetType)
	}
	if f.TargetID != 0 {
		where = append(where, "target_id=?")
		args = append(args, f.TargetID)
	}
	q := `SELECT id, event_id, actor_id, action, target_type, target_id, metadata,
	             ip_address, user_agent, request_id, created_at FROM audit_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit, _ := pageBounds(f.Limit, 0)
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AuditEvent{}
	for rows.Next() {
		var (
			e     model.AuditEvent
			actor sql.NullInt64
			meta  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EventID, &actor, &e.Action, &e.TargetType, &e.TargetID, &meta,
			&e.IPAddress, &e.UserAgent, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			v := uint64(actor.Int64)
			e.ActorID = &v
		}
		if meta.Valid && meta.String != "" {
			e.Metadata = []byte(meta.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
