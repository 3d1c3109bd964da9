package zbytes

type decodeConfig struct {
	registry *Registry
}

// DecodeOption tunes a call to [Deserialize] or [DecodeAny].
type DecodeOption func(*decodeConfig)

// WithRegistry makes the decode consult reg before any built-in rule.
func WithRegistry(reg *Registry) DecodeOption {
	return func(c *decodeConfig) {
		c.registry = reg
	}
}
