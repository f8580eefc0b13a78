// Package idgen generates short, sortable, unique identifiers for events
// a Limiter emits, so a webhook or websocket sink can dedupe/order them
// without round-tripping through a database sequence.
package idgen

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

// epochMillis is the custom epoch (2024-01-01T00:00:00Z) IDs are measured from,
// so values stay smaller than a raw Unix-epoch snowflake for longer.
const epochMillis int64 = 1704067200000

const (
	nodeBits = 10
	stepBits = 12
	nodeMax  = -1 ^ (-1 << nodeBits)
	stepMask = -1 ^ (-1 << stepBits)
	timeShift = nodeBits + stepBits
	nodeShift = stepBits
)

const encodeBase58Map = "123456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// ErrInvalidNode is returned by NewNode when the node number is out of range.
var ErrInvalidNode = errors.New("idgen: node number must be between 0 and " + strconv.Itoa(nodeMax))

// Node generates unique, k-sortable IDs. A Node is safe for concurrent use.
type Node struct {
	mu    sync.Mutex
	epoch time.Time
	time  int64
	step  int64
	node  int64
}

// NewNode returns a Node tagged with the given node number, used to keep
// IDs unique when more than one process generates them concurrently.
func NewNode(node int64) (*Node, error) {
	if node < 0 || node > nodeMax {
		return nil, ErrInvalidNode
	}
	now := time.Now()
	return &Node{
		node:  node,
		epoch: now.Add(time.Unix(epochMillis/1000, (epochMillis%1000)*1e6).Sub(now)),
	}, nil
}

// MustNewNode is NewNode for callers that can supply a compile-time-valid
// node number and don't want to plumb an error through construction.
func MustNewNode(node int64) *Node {
	n, err := NewNode(node)
	if err != nil {
		panic(err)
	}
	return n
}

// ID is an opaque, time-sortable identifier.
type ID int64

// Generate returns a new ID. IDs generated by the same Node are strictly
// increasing; the node number is folded into the low bits so IDs from
// distinct nodes never collide.
func (n *Node) Generate() ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Since(n.epoch).Milliseconds()
	if now == n.time {
		n.step = (n.step + 1) & stepMask
		if n.step == 0 {
			for now <= n.time {
				now = time.Since(n.epoch).Milliseconds()
			}
		}
	} else {
		n.step = 0
	}
	n.time = now

	return ID(now<<timeShift | (n.node << nodeShift) | n.step)
}

// Int64 returns id as an int64.
func (id ID) Int64() int64 { return int64(id) }

// String returns the base-10 representation of id.
func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Base58 returns id encoded in base58, shorter than the decimal form and
// safe to embed in a URL without escaping.
func (id ID) Base58() string {
	if id < 58 {
		return string(encodeBase58Map[id])
	}
	b := make([]byte, 0, 11)
	for id >= 58 {
		b = append(b, encodeBase58Map[id%58])
		id /= 58
	}
	b = append(b, encodeBase58Map[id])
	for x, y := 0, len(b)-1; x < y; x, y = x+1, y-1 {
		b[x], b[y] = b[y], b[x]
	}
	return string(b)
}
