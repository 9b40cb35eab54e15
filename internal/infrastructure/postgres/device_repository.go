package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/device"
)

// DeviceRepository implements device.Repository.
type DeviceRepository struct {
	pool *pgxpool.Pool
}

func NewDeviceRepository(pool *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{pool: pool}
}

const deviceColumns = `id, identifier, device_type, owner, ownership, status, properties, enrolled_at, updated_at`

func (r *DeviceRepository) GetByIdentifier(ctx context.Context, identifier string) (*device.Device, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+deviceColumns+`
		FROM devices WHERE identifier=$1
	`, identifier)
	return scanDevice(row)
}

func (r *DeviceRepository) Enroll(ctx context.Context, d *device.Device) error {
	props, err := json.Marshal(d.Properties)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO devices
		(identifier, device_type, owner, ownership, status, properties, enrolled_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (identifier) DO UPDATE
		SET owner=EXCLUDED.owner, ownership=EXCLUDED.ownership, status=EXCLUDED.status,
		    properties=EXCLUDED.properties, updated_at=EXCLUDED.updated_at
		RETURNING id
	`, d.Identifier, d.Type, d.Enrolment.Owner, d.Enrolment.Ownership, d.Enrolment.Status,
		props, d.Enrolment.EnrolledAt, d.Enrolment.UpdatedAt).Scan(&d.ID)
}

func (r *DeviceRepository) ModifyEnrollment(ctx context.Context, d *device.Device) error {
	props, err := json.Marshal(d.Properties)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE devices
		SET device_type=$1, owner=$2, ownership=$3, status=$4, properties=$5, updated_at=$6
		WHERE identifier=$7
	`, d.Type, d.Enrolment.Owner, d.Enrolment.Ownership, d.Enrolment.Status, props,
		d.Enrolment.UpdatedAt, d.Identifier)
	return err
}

func (r *DeviceRepository) Disenroll(ctx context.Context, identifier string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE devices SET status=$1, updated_at=$2 WHERE identifier=$3
	`, device.StatusRemoved, time.Now().UTC(), identifier)
	return err
}

func (r *DeviceRepository) List(ctx context.Context, limit, offset int) ([]*device.Device, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+deviceColumns+`
		FROM devices ORDER BY enrolled_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var devices []*device.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *DeviceRepository) Count(ctx context.Context) (int, error) {
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devices`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanDevice(row pgx.Row) (*device.Device, error) {
	var d device.Device
	var props []byte
	if err := row.Scan(&d.ID, &d.Identifier, &d.Type, &d.Enrolment.Owner, &d.Enrolment.Ownership,
		&d.Enrolment.Status, &props, &d.Enrolment.EnrolledAt, &d.Enrolment.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &d.Properties); err != nil {
			return nil, err
		}
	}
	return &d, nil
}
