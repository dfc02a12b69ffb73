// Package console renders quotes, results and trade history for the CLI.
package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// Console writes human-readable tables to out.
type Console struct {
	out io.Writer
}

// New builds a Console writing to stdout.
func New() *Console {
	return &Console{out: os.Stdout}
}

// NewWithWriter builds a Console writing to the given writer.
func NewWithWriter(out io.Writer) *Console {
	return &Console{out: out}
}

// PrintQuotes renders both venues' quotes side by side and marks the venue
// the router would pick.
func (c *Console) PrintQuotes(cca, mm, selected domain.PlatformOption) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Venue", "Status", "Sell", "Buy", "Rate", "Routed")

	for _, opt := range []domain.PlatformOption{cca, mm} {
		routed := ""
		if selected.Usable() && opt.Venue == selected.Venue {
			routed = "<<"
		}
		if !opt.Usable() {
			table.Append(opt.Venue.DisplayName(), "unavailable: "+opt.Err, "-", "-", "-", routed)
			continue
		}
		table.Append(
			opt.Venue.DisplayName(),
			"available",
			opt.Quote.SellAmount.String(),
			opt.Quote.BuyAmount.String(),
			opt.Quote.Rate.StringFixed(6),
			routed,
		)
	}

	table.Render()
}

// PrintNoRoute reports why routing selected neither venue.
func (c *Console) PrintNoRoute(err error) {
	fmt.Fprintf(c.out, "\nno venue routed: %v\n", err)
}

// PrintOfferPlaced reports a new resting offer. The offer ID is known only
// once the RFQ API has indexed the creation event.
func (c *Console) PrintOfferPlaced(offerID, txHash string) {
	if offerID == "" {
		offerID = "pending (check -offers once indexed)"
	}
	fmt.Fprintf(c.out, "\nOffer placed\n")
	fmt.Fprintf(c.out, "  id: %s\n", offerID)
	fmt.Fprintf(c.out, "  tx: %s\n", txHash)
}

// PrintOfferCancelled reports a cancelled offer.
func (c *Console) PrintOfferCancelled(offerID, txHash string) {
	fmt.Fprintf(c.out, "\nOffer %s cancelled\n", offerID)
	fmt.Fprintf(c.out, "  tx: %s\n", txHash)
}

// PrintResult renders one completed trade.
func (c *Console) PrintResult(res domain.TradeResult) {
	fmt.Fprintf(c.out, "\nTrade %s on %s (%s)\n", res.Status, res.Source.DisplayName(), res.Network)
	fmt.Fprintf(c.out, "  sold:     %s %s\n", res.SellAmount, res.SellToken)
	fmt.Fprintf(c.out, "  received: %s %s\n", res.BuyAmount, res.BuyToken)
	fmt.Fprintf(c.out, "  rate:     %s\n", res.Rate)
	fmt.Fprintf(c.out, "  tx:       %s\n", res.TxHash)
	if res.OrderID != "" {
		fmt.Fprintf(c.out, "  order:    %s\n", res.OrderID)
	}
}

// PrintHistory renders stored trades, newest first.
func (c *Console) PrintHistory(trades []domain.TradeResult) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "no trades recorded")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Venue", "Sold", "Received", "Rate", "Tx")

	for _, tr := range trades {
		table.Append(
			tr.Timestamp.Format(time.DateTime),
			tr.Source.DisplayName(),
			fmt.Sprintf("%s %s", tr.SellAmount, shortAddr(tr.SellToken)),
			fmt.Sprintf("%s %s", tr.BuyAmount, shortAddr(tr.BuyToken)),
			tr.Rate.StringFixed(6),
			shortAddr(tr.TxHash),
		)
	}

	table.Render()
}

// PrintOffers renders the resting offer book for one pair.
func (c *Console) PrintOffers(offers []domain.Offer) {
	if len(offers) == 0 {
		fmt.Fprintln(c.out, "no resting offers for this pair")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Maker", "Available", "Price/unit", "Pricing", "Expires")

	for _, o := range offers {
		expires := "-"
		if !o.ExpiresAt.IsZero() {
			expires = o.ExpiresAt.Format(time.DateTime)
		}
		table.Append(
			o.ID,
			shortAddr(o.Maker),
			o.AvailableAmount.String(),
			o.PricePerUnit.String(),
			string(o.Pricing),
			expires,
		)
	}

	table.Render()
}

// PrintFeeds renders the oracle price feed registry.
func (c *Console) PrintFeeds(feeds []domain.PriceFeed) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Asset", "Feed")
	for _, f := range feeds {
		table.Append(f.Asset, f.Feed)
	}
	table.Render()
}

// PrintAccount renders the brokerage account's eligibility and funds.
func (c *Console) PrintAccount(status domain.AccountStatus, funds domain.Funds) {
	fmt.Fprintf(c.out, "account status\n")
	fmt.Fprintf(c.out, "  kyc passed:   %t\n", status.KYCPassed)
	fmt.Fprintf(c.out, "  blocked:      %t", status.Blocked)
	if status.Blocked && status.BlockedReason != "" {
		fmt.Fprintf(c.out, " (%s)", status.BlockedReason)
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  market open:  %t\n", status.MarketOpen)
	fmt.Fprintf(c.out, "  buying power: %s %s\n", funds.BuyingPower.StringFixed(2), funds.Currency)
}

func shortAddr(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:8] + ".." + s[len(s)-4:]
}
