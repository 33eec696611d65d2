package stream

import "time"

// Config defines subscriber delivery settings.
type Config struct {
	ChannelBufferSize int `json:"channel_buffer_size,omitempty" yaml:"channel_buffer_size,omitempty"`
	DeliveryTimeoutMS int `json:"delivery_timeout_ms,omitempty" yaml:"delivery_timeout_ms,omitempty"`
}

// DefaultConfig buffers 64 posts per subscriber and waits 5s on a full buffer.
func DefaultConfig() Config {
	return Config{
		ChannelBufferSize: 64,
		DeliveryTimeoutMS: 5000,
	}
}

// Merge overwrites c with the positive fields of source.
func (c *Config) Merge(source *Config) {
	if source.ChannelBufferSize > 0 {
		c.ChannelBufferSize = source.ChannelBufferSize
	}

	if source.DeliveryTimeoutMS > 0 {
		c.DeliveryTimeoutMS = source.DeliveryTimeoutMS
	}
}

// DeliveryTimeout is how long Deliver waits on a full buffer before the
// subscriber is considered dead.
func (c Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.DeliveryTimeoutMS) * time.Millisecond
}
