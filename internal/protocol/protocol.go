// Package protocol is the JSON wire protocol for the cachefront daemon over
// a unix domain socket, plus a client that implements store.Store so one
// process's facade can use another's daemon as its backing store.
package protocol

// One request -> one response using json.Encoder/Decoder per connection.

type Request struct {
	Op    string `json:"op"` // "get" | "put" | "evict" | "clear" | "size"
	Key   string `json:"key,omitempty"`
	Value []byte `json:"value,omitempty"`
	// TTLMillis is the entry TTL in milliseconds; 0 means the entry never
	// expires. A nil TTLMillis leaves the TTL unset, letting the daemon
	// apply its route/default TTL. The two must stay distinguishable on
	// the wire, which is why this is a pointer and not an omitempty int.
	TTLMillis *int64 `json:"ttl_ms,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Value []byte `json:"value,omitempty"`
	Size  int    `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
}
