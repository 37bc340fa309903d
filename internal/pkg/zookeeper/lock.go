package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/ec-backend/locks"

// ErrLockTimeout is returned when the lock could not be acquired before the
// context deadline or the per-wait cap expired.
var ErrLockTimeout = errors.New("zookeeper: timeout waiting for lock")

// Conn is a thin wrapper over a zk connection.
type Conn struct {
	*zk.Conn
}

// Connect dials the given zookeeper ensemble ("host1:2181,host2:2181").
func Connect(addrs string) (*Conn, error) {
	c, _, err := zk.Connect(strings.Split(addrs, ","), 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: c}, nil
}

// DistributedLock serializes writers on a single resource (one order) using
// ephemeral sequential nodes: the holder of the smallest sequence owns the
// lock, everyone else watches their predecessor.
type DistributedLock struct {
	conn     *Conn
	path     string
	lockNode string
}

// NewDistributedLock prepares the lock path for resourceID, creating parents
// as needed.
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	path := ""
	for _, part := range strings.Split(strings.Trim(lockRoot+"/"+resourceID, "/"), "/") {
		path += "/" + part
		_, err := conn.Create(path, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return nil, fmt.Errorf("zookeeper: create lock path %s: %w", path, err)
		}
	}
	return &DistributedLock{conn: conn, path: path}, nil
}

// Lock blocks until the lock is held, the context is cancelled, or a wait
// times out.
func (l *DistributedLock) Lock(ctx context.Context) error {
	node, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", nil, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("zookeeper: create sequential node: %w", err)
	}
	l.lockNode = node

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("zookeeper: list children: %w", err)
		}
		sort.Strings(children)

		mine := strings.TrimPrefix(l.lockNode, l.path+"/")
		if mine == children[0] {
			return nil
		}

		prev := -1
		for i, child := range children {
			if child == mine {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			return errors.New("zookeeper: own lock node missing from children")
		}

		_, _, eventCh, err := l.conn.ExistsW(l.path + "/" + children[prev])
		if err != nil {
			if err == zk.ErrNoNode {
				continue // predecessor vanished between list and watch
			}
			return fmt.Errorf("zookeeper: watch predecessor: %w", err)
		}

		select {
		case ev := <-eventCh:
			if ev.Type == zk.EventNodeDeleted {
				continue
			}
		case <-ctx.Done():
			_ = l.Unlock()
			return ctx.Err()
		case <-time.After(30 * time.Second):
			_ = l.Unlock()
			return ErrLockTimeout
		}
	}
}

// Unlock releases the lock. Safe to call when the node is already gone.
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("zookeeper: no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("zookeeper: delete lock node: %w", err)
	}
	return nil
}
