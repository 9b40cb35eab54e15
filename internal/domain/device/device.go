package device

import (
	"strings"
	"time"
)

// TypeWindows is the only device type this plugin manages.
const TypeWindows = "windows"

// Ownership of an enrolled device.
type Ownership string

const (
	OwnershipBYOD Ownership = "BYOD"
	OwnershipCOPE Ownership = "COPE"
)

// Status of an enrollment.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusRemoved  Status = "REMOVED"
)

// Well-known property names recorded against a device.
const (
	PropIMEI       = "IMEI"
	PropIMSI       = "IMSI"
	PropOSVersion  = "OS_VERSION"
	PropVendor     = "VENDOR"
	PropModel      = "DEVICE_MODEL"
	PropMACAddress = "MAC_ADDRESS"
	PropResolution = "DEVICE_INFO"
	PropDeviceName = "DEVICE_NAME"
	PropLanguage   = "DEVICE_LANGUAGE"
)

// Property is a single named device attribute. Properties keep insertion
// order so persisted sets diff stably between syncs.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EnrolmentInfo tracks the management relationship of a device.
type EnrolmentInfo struct {
	Owner      string    `json:"owner"`
	Ownership  Ownership `json:"ownership"`
	Status     Status    `json:"status"`
	EnrolledAt time.Time `json:"enrolledAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Device is an enrolled device record.
type Device struct {
	ID         int64         `json:"id"`
	Identifier string        `json:"identifier"`
	Type       string        `json:"type"`
	Properties []Property    `json:"properties"`
	Enrolment  EnrolmentInfo `json:"enrolmentInfo"`
}

// Property returns the named property value.
func (d *Device) Property(name string) (string, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ReplaceProperties overwrites the property set wholesale. Old properties
// not present in the new set are dropped.
func (d *Device) ReplaceProperties(props []Property) {
	d.Properties = append([]Property(nil), props...)
}

// IsEnrolled reports whether the device still has an active management
// relationship.
func (d *Device) IsEnrolled() bool {
	return d.Enrolment.Status == StatusActive
}

// IdentifierFromURI converts a device source LocURI into the internal
// device identifier.
func IdentifierFromURI(locURI string) string {
	id := strings.TrimSpace(locURI)
	id = strings.TrimPrefix(id, "urn:uuid:")
	return id
}

// License is the enrollment license text shown to a device owner.
type License struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Version  string `json:"version"`
	Text     string `json:"text"`
}
