package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/operation"
)

// OperationRepository implements operation.Repository.
type OperationRepository struct {
	pool *pgxpool.Pool
}

func NewOperationRepository(pool *pgxpool.Pool) *OperationRepository {
	return &OperationRepository{pool: pool}
}

const operationColumns = `id, operation_id, device_identifier, op_type, code, items, payload, status, created_at, delivered_at`

func (r *OperationRepository) Create(ctx context.Context, op *operation.Operation) error {
	items, err := json.Marshal(op.Items)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO operations
		(operation_id, device_identifier, op_type, code, items, payload, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, op.OperationID, op.DeviceIdentifier, op.Type, op.Code, items, op.Payload, op.Status, op.CreatedAt).Scan(&op.ID)
}

// Pending returns queued operations for a device in creation order.
func (r *OperationRepository) Pending(ctx context.Context, deviceIdentifier string) ([]*operation.Operation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+operationColumns+`
		FROM operations
		WHERE device_identifier=$1 AND status=$2
		ORDER BY id ASC
	`, deviceIdentifier, operation.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOperations(rows)
}

func (r *OperationRepository) MarkDelivered(ctx context.Context, deviceIdentifier string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE operations SET status=$1, delivered_at=$2
		WHERE device_identifier=$3 AND id = ANY($4)
	`, operation.StatusDelivered, time.Now().UTC(), deviceIdentifier, ids)
	return err
}

func (r *OperationRepository) ListByDevice(ctx context.Context, deviceIdentifier string, limit, offset int) ([]*operation.Operation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+operationColumns+`
		FROM operations WHERE device_identifier=$1
		ORDER BY id DESC LIMIT $2 OFFSET $3
	`, deviceIdentifier, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOperations(rows)
}

func collectOperations(rows pgx.Rows) ([]*operation.Operation, error) {
	var ops []*operation.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func scanOperation(row pgx.Row) (*operation.Operation, error) {
	var op operation.Operation
	var items []byte
	if err := row.Scan(&op.ID, &op.OperationID, &op.DeviceIdentifier, &op.Type, &op.Code,
		&items, &op.Payload, &op.Status, &op.CreatedAt, &op.DeliveredAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &op.Items); err != nil {
			return nil, err
		}
	}
	return &op, nil
}
