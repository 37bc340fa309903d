package adapter

import (
	"context"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/zookeeper"

	"github.com/pkg/errors"
)

// ZkLockerAdapter implements port.Locker on the zookeeper distributed lock,
// serializing status writers on one order across all backend instances.
type ZkLockerAdapter struct {
	conn *zookeeper.Conn
}

func NewZkLockerAdapter(conn *zookeeper.Conn) *ZkLockerAdapter {
	return &ZkLockerAdapter{conn: conn}
}

func (a *ZkLockerAdapter) WithLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	lock, err := zookeeper.NewDistributedLock(a.conn, "orders/"+resourceID)
	if err != nil {
		return errors.Wrap(err, "prepare order lock")
	}
	if err := lock.Lock(ctx); err != nil {
		return errors.Wrap(err, "acquire order lock")
	}
	defer lock.Unlock()
	return fn(ctx)
}
