package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplacePropertiesDropsOldSet(t *testing.T) {
	d := &Device{
		Identifier: "dev-1",
		Type:       TypeWindows,
		Properties: []Property{
			{Name: PropVendor, Value: "Nokia"},
			{Name: "CUSTOM_TAG", Value: "legacy"},
		},
	}
	d.ReplaceProperties([]Property{
		{Name: PropIMEI, Value: "356938035643809"},
		{Name: PropOSVersion, Value: "10.0.10586"},
	})

	assert.Len(t, d.Properties, 2)
	_, ok := d.Property("CUSTOM_TAG")
	assert.False(t, ok, "old property should be gone after wholesale replace")
	v, ok := d.Property(PropIMEI)
	assert.True(t, ok)
	assert.Equal(t, "356938035643809", v)
}

func TestReplacePropertiesCopiesInput(t *testing.T) {
	src := []Property{{Name: PropVendor, Value: "HTC"}}
	d := &Device{}
	d.ReplaceProperties(src)
	src[0].Value = "mutated"
	v, _ := d.Property(PropVendor)
	assert.Equal(t, "HTC", v)
}

func TestIdentifierFromURI(t *testing.T) {
	assert.Equal(t, "4f2a9e08", IdentifierFromURI("urn:uuid:4f2a9e08"))
	assert.Equal(t, "plain-id", IdentifierFromURI("  plain-id "))
}

func TestIsEnrolled(t *testing.T) {
	d := &Device{Enrolment: EnrolmentInfo{Status: StatusActive}}
	assert.True(t, d.IsEnrolled())
	d.Enrolment.Status = StatusRemoved
	assert.False(t, d.IsEnrolled())
}
