package ranking

// ShippingFeeType classifies how a listing's shipping fee was determined
type ShippingFeeType string

const (
	ShippingPaid    ShippingFeeType = "paid"
	ShippingFree    ShippingFeeType = "free"
	ShippingUnknown ShippingFeeType = "unknown"
	ShippingError   ShippingFeeType = "error"
)

// Listing is one raw search hit as returned by the marketplace, in
// marketplace order (Rank 1..10). Titles have HTML tags stripped.
type Listing struct {
	Rank            int
	Title           string
	Price           int
	HighPrice       int
	Mall            string
	ListingID       string
	URL             string
	ImageURL        string
	Brand           string
	Maker           string
	ProductType     string
	Category1       string
	Category2       string
	Category3       string
	Category4       string
	ShippingFee     int
	ShippingFeeType ShippingFeeType
}

// Total is the listing's effective competitor price
func (l *Listing) Total() int {
	return l.Price + l.ShippingFee
}
