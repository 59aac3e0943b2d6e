package state

import "github.com/ardanlabs/ledger/foundation/blockchain/peer"

// RegisterPeer parses the address and adds its network location to the set
// of known peers. Registering the same location twice is a no-op.
func (s *State) RegisterPeer(address string) (peer.Peer, error) {
	pr, err := peer.Parse(address)
	if err != nil {
		return peer.Peer{}, err
	}

	if s.knownPeers.Add(pr) {
		s.evHandler("state: RegisterPeer: adding peer-node %s", pr)
	}

	return pr, nil
}

// AddKnownPeer provides the ability to add a new peer that is already in
// its parsed form.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	return s.knownPeers.Add(pr)
}
