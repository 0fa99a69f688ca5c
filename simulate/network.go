package simulate

import (
	"math/rand"
	"sync"
	"time"

	"github.com/renproject/id"
	"github.com/renproject/phi"
)

// Network is an in-memory, fully-connected mesh of Replicas. It fans
// out every broadcast message to every active Replica, sender included, with
// simulated latency, the way hyperdrive/testutil/replica.MockBroadcaster
// does, using phi.ParForAll for bounded concurrent delivery.
type Network struct {
	mu         sync.RWMutex
	replicas   map[id.Signatory]*Replica
	active     map[id.Signatory]bool
	minLatency time.Duration
	maxLatency time.Duration
}

// NewNetwork returns an empty Network. Replicas are registered via
// Join once constructed; NewReplica does not join on its own, and
// NewHarness calls Join for every Replica it creates.
func NewNetwork(minLatency, maxLatency time.Duration) *Network {
	return &Network{
		replicas:   map[id.Signatory]*Replica{},
		active:     map[id.Signatory]bool{},
		minLatency: minLatency,
		maxLatency: maxLatency,
	}
}

// Join registers r with the network and marks it active.
func (n *Network) Join(r *Replica) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replicas[r.Signatory()] = r
	n.active[r.Signatory()] = true
}

// SetActive marks a Replica as online (true) or partitioned/crashed
// (false). An inactive Replica neither sends nor receives messages,
// the way hyperdrive/testutil/replica.MockBroadcaster's active map
// simulates partitions for testing.
func (n *Network) SetActive(signatory id.Signatory, active bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active[signatory] = active
}

// broadcast fans msg out to every active Replica, including its own
// sender, the way MockBroadcaster.Broadcast delivers to every entry
// of its cons map with no exception for the sender: a Replica counts
// its own vote toward its own quorum exactly like every other member.
func (n *Network) broadcast(msg Message) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.active[msg.Signatory()] {
		return
	}
	n.broadcastLocked(msg)
}

// send delivers msg to a single recipient, or to every active Replica
// if to is nil.
func (n *Network) send(msg Message, to *id.Signatory) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if to == nil {
		n.broadcastLocked(msg)
		return
	}
	if r, ok := n.replicas[*to]; ok && n.active[*to] {
		n.deliver(r, msg)
	}
}

func (n *Network) broadcastLocked(msg Message) {
	phi.ParForAll(n.replicas, func(sig id.Signatory) {
		if !n.active[sig] {
			return
		}
		n.deliver(n.replicas[sig], msg)
	})
}

func (n *Network) deliver(r *Replica, msg Message) {
	go func() {
		time.Sleep(n.latency())
		r.Deliver(msg)
	}()
}

func (n *Network) latency() time.Duration {
	if n.maxLatency <= n.minLatency {
		return n.minLatency
	}
	return n.minLatency + time.Duration(rand.Int63n(int64(n.maxLatency-n.minLatency)))
}
