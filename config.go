// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

// Config holds the module-load configuration parameters recognized by
// the control surface (§6).
type Config struct {
	// DirectCapture bypasses the general kernel receive path on capable
	// drivers. Default: false.
	DirectCapture bool
	// SniffIncoming, SniffOutgoing, SniffLoopback gate which traffic
	// directions are handed to Receive. Defaults: true, false, false.
	SniffIncoming bool
	SniffOutgoing bool
	SniffLoopback bool
	// CapLen bounds bytes captured per packet into a socket slot.
	// Default: 1514.
	CapLen int
	// QueueSlots is the default per-socket ring slot count. Default:
	// 131072. Rounded up to a power of two at socket creation.
	QueueSlots int
	// PrefetchLen is the per-CPU batch trigger length. Default: 1
	// (process synchronously as packets arrive); raising it trades
	// latency for batching efficiency up to BatchLen.
	PrefetchLen int
	// FlowControl is the flow-control module parameter. Default: false.
	// The engine does not read it: a full socket ring is always counted
	// as Lost and no backpressure is signalled to producers.
	FlowControl bool
}

// DefaultConfig returns the §6 configuration defaults.
func DefaultConfig() Config {
	return Config{
		DirectCapture: false,
		SniffIncoming: true,
		SniffOutgoing: false,
		SniffLoopback: false,
		CapLen:        1514,
		QueueSlots:    131072,
		PrefetchLen:   1,
		FlowControl:   false,
	}
}

// Validate rejects out-of-range configuration values at the control call
// (§7: configuration errors reject with no side effects).
func (c Config) Validate() error {
	if c.CapLen <= 0 || c.CapLen > 65535 {
		return ErrInvalidConfigValue
	}
	if c.QueueSlots < 2 {
		return ErrInvalidConfigValue
	}
	if c.PrefetchLen < 1 || c.PrefetchLen > BatchLen {
		return ErrInvalidConfigValue
	}
	return nil
}
