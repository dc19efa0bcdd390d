package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/riteshkumar/bank-ledger/internal/models"
)

// CreateAuditLog inserts an audit entry. Called inside RunAtomic so the entry
// commits with the mutation it describes.
func (s *PostgresStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	query := `INSERT INTO audit_logs (id, entity_type, entity_id, action, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING created_at`

	// pq sends []byte as bytea, so JSONB payloads go over as strings.
	var oldValue, newValue any
	if log.OldValue != nil {
		oldValue = string(log.OldValue)
	}
	if log.NewValue != nil {
		newValue = string(log.NewValue)
	}

	err := s.q.QueryRowContext(ctx, query,
		log.ID,
		log.EntityType,
		log.EntityID,
		log.Action,
		oldValue,
		newValue,
	).Scan(&log.CreatedAt)

	if err != nil {
		return storeError("create audit log", err)
	}
	return nil
}

func (s *PostgresStore) ListAuditLogsByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditLog, error) {
	query := `SELECT id, entity_type, entity_id, action, old_value, new_value, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, storeError("list audit logs", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		var oldValue, newValue []byte

		err := rows.Scan(&log.ID, &log.EntityType, &log.EntityID, &log.Action, &oldValue, &newValue, &log.CreatedAt)
		if err != nil {
			return nil, storeError("scan audit log", err)
		}

		if oldValue != nil {
			log.OldValue = json.RawMessage(oldValue)
		}
		log.NewValue = json.RawMessage(newValue)

		logs = append(logs, log)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError("list audit logs", err)
	}
	return logs, nil
}
