package operation

import (
	"time"

	"github.com/google/uuid"
)

// Type maps an operation onto its SyncML command element.
type Type string

const (
	TypeGet     Type = "GET"
	TypeExec    Type = "EXEC"
	TypeConfig  Type = "CONFIG"
	TypeInstall Type = "INSTALL"
	TypeRemove  Type = "REMOVE"
)

// Element returns the SyncML element name for the operation type.
func (t Type) Element() string {
	switch t {
	case TypeExec:
		return "Exec"
	case TypeConfig:
		return "Replace"
	case TypeInstall:
		return "Add"
	case TypeRemove:
		return "Delete"
	default:
		return "Get"
	}
}

// Status of a queued operation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
)

// Operation is one management command queued for a device. Items are the
// management-tree URIs the command addresses, in delivery order.
type Operation struct {
	ID               int64      `json:"id"`
	OperationID      uuid.UUID  `json:"operationId"`
	DeviceIdentifier string     `json:"deviceIdentifier"`
	Type             Type       `json:"type"`
	Code             string     `json:"code"`
	Items            []string   `json:"items"`
	Payload          string     `json:"payload,omitempty"`
	Status           Status     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	DeliveredAt      *time.Time `json:"deliveredAt,omitempty"`
}

// Device-information request codes issued on first contact. Ordering matches
// the fixed positions the property-sync stage reads results at.
var deviceInfoURIs = []string{
	"./DevDetail/SwV",
	"./Vendor/MSFT/DeviceInstanceService/Identity/Identity1/IMSI",
	"./Vendor/MSFT/DeviceInstanceService/Identity/Identity1/IMEI",
	"./DevInfo/Man",
	"./DevInfo/Mod",
	"./DevDetail/Ext/WLANMACAddress",
	"./DevDetail/Ext/Microsoft/Resolution",
	"./DevDetail/Ext/Microsoft/DeviceName",
}

// DeviceInfoOperations returns the operation list a first-contact reply
// embeds to request the device's identity properties.
func DeviceInfoOperations() []*Operation {
	ops := make([]*Operation, 0, len(deviceInfoURIs))
	for _, uri := range deviceInfoURIs {
		ops = append(ops, &Operation{
			OperationID: uuid.New(),
			Type:        TypeGet,
			Code:        "DEVICE_INFO",
			Items:       []string{uri},
			Status:      StatusPending,
		})
	}
	return ops
}
