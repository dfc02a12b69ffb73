package trading

import (
	"fmt"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// Select picks which venue to execute on. Pure function: no I/O, no mutation,
// identical inputs always give the identical choice.
//
// Rules, in priority order:
//  1. Neither option usable: NoLiquidityError with both reasons.
//  2. *_ONLY: that venue or NoLiquidityError, never the other venue.
//  3. *_FIRST: the preferred venue when usable, else the other.
//  4. BestPrice: the only usable venue, or the better effective rate. A buy
//     wants the lower rate (cheaper cost per unit), a sell the higher. Ties
//     go to Cross-Chain Access.
func Select(cca, mm domain.PlatformOption, strategy domain.RoutingStrategy, isBuy bool) (domain.PlatformOption, error) {
	if !cca.Usable() && !mm.Usable() {
		return domain.PlatformOption{}, &domain.NoLiquidityError{Reasons: []string{
			fmt.Sprintf("%s: %s", cca.Venue.DisplayName(), cca.Err),
			fmt.Sprintf("%s: %s", mm.Venue.DisplayName(), mm.Err),
		}}
	}

	switch strategy {
	case domain.CrossChainAccessOnly:
		return only(cca)
	case domain.MarketMakerOnly:
		return only(mm)
	case domain.CrossChainAccessFirst:
		return first(cca, mm), nil
	case domain.MarketMakerFirst:
		return first(mm, cca), nil
	}

	// BestPrice, also the fallback for an unset strategy.
	if !cca.Usable() {
		return mm, nil
	}
	if !mm.Usable() {
		return cca, nil
	}

	ccaRate, mmRate := cca.EffectiveRate(), mm.EffectiveRate()
	if isBuy {
		if ccaRate.LessThanOrEqual(mmRate) {
			return cca, nil
		}
		return mm, nil
	}
	if ccaRate.GreaterThanOrEqual(mmRate) {
		return cca, nil
	}
	return mm, nil
}

func only(opt domain.PlatformOption) (domain.PlatformOption, error) {
	if opt.Usable() {
		return opt, nil
	}
	return domain.PlatformOption{}, &domain.NoLiquidityError{Reasons: []string{
		fmt.Sprintf("%s: %s", opt.Venue.DisplayName(), opt.Err),
	}}
}

func first(preferred, other domain.PlatformOption) domain.PlatformOption {
	if preferred.Usable() {
		return preferred
	}
	return other
}
