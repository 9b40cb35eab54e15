package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdm-gateway/mdm-gateway/internal/domain/policy"
)

// PolicyRepository implements policy.Repository.
type PolicyRepository struct {
	pool *pgxpool.Pool
}

func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

const policyColumns = `id, policy_id, name, priority, criteria, payload, active, created_at, updated_at`

func (r *PolicyRepository) Create(ctx context.Context, p *policy.Policy) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO policies
		(policy_id, name, priority, criteria, payload, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, p.PolicyID, p.Name, p.Priority, p.Criteria, p.Payload, p.Active, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
}

func (r *PolicyRepository) Update(ctx context.Context, p *policy.Policy) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE policies
		SET name=$1, priority=$2, criteria=$3, payload=$4, active=$5, updated_at=$6
		WHERE policy_id=$7
	`, p.Name, p.Priority, p.Criteria, p.Payload, p.Active, p.UpdatedAt, p.PolicyID)
	return err
}

func (r *PolicyRepository) GetByID(ctx context.Context, policyID uuid.UUID) (*policy.Policy, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+policyColumns+` FROM policies WHERE policy_id=$1
	`, policyID)
	return scanPolicy(row)
}

// ListActive returns active policies, highest priority first.
func (r *PolicyRepository) ListActive(ctx context.Context) ([]*policy.Policy, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+policyColumns+`
		FROM policies WHERE active ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var policies []*policy.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func scanPolicy(row pgx.Row) (*policy.Policy, error) {
	var p policy.Policy
	if err := row.Scan(&p.ID, &p.PolicyID, &p.Name, &p.Priority, &p.Criteria, &p.Payload,
		&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
