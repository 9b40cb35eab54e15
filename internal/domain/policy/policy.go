package policy

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Policy is a management policy that may apply to enrolled devices.
// Criteria is a boolean expression evaluated against device attributes;
// an empty criteria matches every device. Higher Priority wins.
type Policy struct {
	ID        int64           `json:"id"`
	PolicyID  uuid.UUID       `json:"policyId"`
	Name      string          `json:"name"`
	Priority  int             `json:"priority"`
	Criteria  string          `json:"criteria"`
	Payload   json.RawMessage `json:"payload"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
