// Package nonce issues request freshness tokens. Exchanges reject
// authenticated calls whose token falls outside a short server-side
// tolerance window, so tokens are taken from the wall clock at the moment of
// signing and are never cached between requests.
package nonce

import (
	"strconv"
	"sync"
	"time"
)

// Nonce struct holds the last issued token value
type Nonce struct {
	n int64
	m sync.Mutex
}

// GetMilli returns the current time as a millisecond epoch token. Issued
// values never decrease, even if the wall clock steps backwards or two
// requests land inside the same millisecond.
func (n *Nonce) GetMilli() Value {
	n.m.Lock()
	defer n.m.Unlock()
	now := time.Now().UnixMilli()
	if now <= n.n {
		n.n++
	} else {
		n.n = now
	}
	return Value(n.n)
}

// Get retrieves the last issued token value
func (n *Nonce) Get() Value {
	n.m.Lock()
	defer n.m.Unlock()
	return Value(n.n)
}

// String returns a string version of the last issued token
func (n *Nonce) String() string {
	return n.Get().String()
}

// Value is an issued freshness token
type Value int64

// String is a Value method that changes format to a string
func (v Value) String() string {
	return strconv.FormatInt(int64(v), 10)
}
