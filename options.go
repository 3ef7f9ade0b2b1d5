package lattice

// ContractOption configures contract construction.
type ContractOption func(*contractConfig)

// contractConfig holds configuration applied at NewContract.
type contractConfig struct {
	maxPayload   int
	instantiated bool
}

// DefaultMaxPayload is the default call payload size limit in bytes.
const DefaultMaxPayload = 1 << 20

// defaultContractConfig returns the default contract configuration.
func defaultContractConfig() contractConfig {
	return contractConfig{
		maxPayload: DefaultMaxPayload,
	}
}

// WithMaxPayload caps the accepted call payload size. Payloads above the
// cap are rejected before selector lookup. Default is DefaultMaxPayload.
func WithMaxPayload(limit int) ContractOption {
	return func(c *contractConfig) {
		if limit >= SelectorSize {
			c.maxPayload = limit
		}
	}
}

// WithInstantiated marks the contract as already instantiated at
// construction, skipping the constructor gate. Use when binding to a
// store that already holds a deployed instance's state.
func WithInstantiated() ContractOption {
	return func(c *contractConfig) {
		c.instantiated = true
	}
}
