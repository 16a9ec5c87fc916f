package backend

type CapabilityType string

const (
	// Core capabilities by backend
	CapabilityStorage CapabilityType = "storage"
	CapabilityRange   CapabilityType = "range"

	// Extension capabilities describing persistence and native support
	CapabilityPersistent    CapabilityType = "persistent"
	CapabilityNativeRange   CapabilityType = "native_range"
	CapabilityNativeReverse CapabilityType = "native_reverse"
)

type Capability struct {
	Type   CapabilityType `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

type CapabilitySettings struct {
	IsReadonly bool `json:"isreadonly,omitempty"`
	// MaxKeySize and MaxValueSize are informational; the store enforces them
	// and errors are passed through unchanged.
	MaxKeySize   int64 `json:"max_key_size,omitempty"`
	MaxValueSize int64 `json:"max_value_size,omitempty"`
}

type Capabilities struct {
	Capabilities []Capability       `json:"capabilities"`
	Settings     CapabilitySettings `json:"settings,omitempty"`
}

// NewCapabilities builds a capability list without parameters.
func NewCapabilities(types ...CapabilityType) *Capabilities {
	caps := &Capabilities{
		Capabilities: make([]Capability, 0, len(types)),
	}
	for _, t := range types {
		caps.Capabilities = append(caps.Capabilities, Capability{Type: t})
	}
	return caps
}

// Contains checks if a capability is supported
func (c *Capabilities) Contains(cap CapabilityType) (bool, Capability) {
	for _, capability := range c.Capabilities {
		if capability.Type == cap {
			return true, capability
		}
	}

	return false, Capability{}
}
