package rfq

// Wire types for the offer-book RFQ API. Field names follow the API's
// camelCase JSON; amounts arrive as strings in either human-readable or
// smallest units depending on the field.

type assetPayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Address       string `json:"address"`
	TokenStandard string `json:"tokenStandard"`
	Decimals      int32  `json:"decimals"`
}

type offerPricePayload struct {
	ID          string `json:"id"`
	PricingType string `json:"pricingType"` // "FixedPricing" | "DynamicPricing"
	UnitPrice   string `json:"unitPrice"`
}

type offerPayload struct {
	ID                      string            `json:"id"`
	Maker                   string            `json:"maker"`
	AmountIn                string            `json:"amountIn"`
	AmountOut               string            `json:"amountOut"`
	AvailableAmount         string            `json:"availableAmount"`
	DepositAsset            assetPayload      `json:"depositAsset"`
	WithdrawalAsset         assetPayload      `json:"withdrawalAsset"`
	OfferPrice              offerPricePayload `json:"offerPrice"`
	ExpiryTimestamp         int64             `json:"expiryTimestamp"`
	DepositToWithdrawalRate string            `json:"depositToWithdrawalRate,omitempty"`
}

type offersResponse struct {
	Success bool           `json:"success"`
	Offers  []offerPayload `json:"offers"`
}

type selectedOfferPayload struct {
	ID                          string `json:"id"`
	WithdrawalAmountPaid        string `json:"withdrawalAmountPaid"`
	WithdrawalAmountPaidDecimal int32  `json:"withdrawalAmountPaidDecimals"`
	OfferType                   string `json:"offerType"`
	Maker                       string `json:"maker"`
	PricePerUnit                string `json:"pricePerUnit"`
	PricingType                 string `json:"pricingType"`
	DepositToWithdrawalRate     string `json:"depositToWithdrawalRate,omitempty"`
}

type bestOffersResult struct {
	Success                   bool                   `json:"success"`
	TargetAmount              string                 `json:"targetAmount"`
	TotalWithdrawalAmountPaid string                 `json:"totalWithdrawalAmountPaid"`
	SelectedOffers            []selectedOfferPayload `json:"selectedOffers"`
	Mode                      string                 `json:"mode"`
}

type bestOffersResponse struct {
	Success bool             `json:"success"`
	Result  bestOffersResult `json:"result"`
}

type quoteResponse struct {
	Success          bool   `json:"success"`
	BuyAssetAddress  string `json:"buyAssetAddress"`
	SellAssetAddress string `json:"sellAssetAddress"`
	AveragePrice     string `json:"averagePrice"`
	SellAmount       string `json:"sellAmount"`
	BuyAmount        string `json:"buyAmount"`
}

type priceFeedsResponse struct {
	Success    bool              `json:"success"`
	PriceFeeds map[string]string `json:"priceFeeds"`
}

const (
	pricingFixedWire   = "FixedPricing"
	pricingDynamicWire = "DynamicPricing"
)
