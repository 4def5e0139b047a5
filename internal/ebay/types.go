package ebay

// ItemSummary represents a single item from the eBay Browse API search response.
type ItemSummary struct {
	ItemID       string        `json:"itemId"`
	Title        string        `json:"title"`
	Price        *ItemPrice    `json:"price,omitempty"`
	ItemWebURL   string        `json:"itemWebUrl"`
	Image        *ItemImage    `json:"image,omitempty"`
	Seller       *ItemSeller   `json:"seller,omitempty"`
	Condition    string        `json:"condition"`
	ConditionID  string        `json:"conditionId"`
	ItemLocation *ItemLocation `json:"itemLocation,omitempty"`
}

// ItemPrice holds eBay price information. Value is a decimal string.
type ItemPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// ItemImage holds eBay image information.
type ItemImage struct {
	ImageURL string `json:"imageUrl"`
}

// ItemSeller holds eBay seller information.
type ItemSeller struct {
	Username           string `json:"username"`
	FeedbackScore      int    `json:"feedbackScore"`
	FeedbackPercentage string `json:"feedbackPercentage"`
}

// ItemLocation is where the item ships from.
type ItemLocation struct {
	Country    string `json:"country"`
	PostalCode string `json:"postalCode,omitempty"`
}
