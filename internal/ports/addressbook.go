package ports

import (
	"context"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// AddressBook resolves per-network contract addresses from remote
// configuration, with a periodic refresh behind the scenes.
type AddressBook interface {
	// EscrowAddress returns the brokerage escrow wallet for the network.
	EscrowAddress(ctx context.Context, network domain.Network) (string, error)

	// ManagerAddress returns the offer-book manager contract for the network.
	ManagerAddress(ctx context.Context, network domain.Network) (string, error)
}
