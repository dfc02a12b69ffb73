package domain

// Network is a supported blockchain network, identified by its chain ID.
type Network int64

const (
	NetworkEthereum Network = 1
	NetworkBSC      Network = 56
	NetworkPolygon  Network = 137
	NetworkBase     Network = 8453
)

// ChainID returns the network's numeric chain ID.
func (n Network) ChainID() int64 { return int64(n) }

func (n Network) String() string {
	switch n {
	case NetworkEthereum:
		return "ethereum"
	case NetworkBSC:
		return "bsc"
	case NetworkPolygon:
		return "polygon"
	case NetworkBase:
		return "base"
	}
	return "unknown"
}

// ParseNetwork maps a network name to its Network value.
// Returns false if the name is not recognized.
func ParseNetwork(name string) (Network, bool) {
	switch name {
	case "ethereum", "mainnet":
		return NetworkEthereum, true
	case "bsc":
		return NetworkBSC, true
	case "polygon":
		return NetworkPolygon, true
	case "base":
		return NetworkBase, true
	}
	return 0, false
}
