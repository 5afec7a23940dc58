package cache

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSInvalidator publishes cache-eviction keys to the subject the cache
// implementations subscribe on. Publishing an empty payload flushes the
// whole cache. A nil receiver or nil connection is a safe no-op.
type NATSInvalidator struct {
	nc      *nats.Conn
	subject string
	log     *zap.Logger
}

func NewNATSInvalidator(nc *nats.Conn, subject string, log *zap.Logger) *NATSInvalidator {
	return &NATSInvalidator{nc: nc, subject: subject, log: log}
}

func (i *NATSInvalidator) Invalidate(key string) {
	if i == nil || i.nc == nil {
		return
	}
	if err := i.nc.Publish(i.subject, []byte(key)); err != nil {
		i.log.Warn("cache: invalidation publish failed", zap.String("key", key), zap.Error(err))
	}
}
