package repo

// Featured is the sileo-featured.json envelope.
type Featured struct {
	Class            string           `json:"class"`
	ItemSize         string           `json:"itemSize"`
	ItemCornerRadius int              `json:"itemCornerRadius"`
	Banners          []FeaturedBanner `json:"banners"`
}

const (
	featuredClass        = "FeaturedBannersView"
	featuredItemSize     = "{263, 148}"
	featuredCornerRadius = 10
)

func NewFeatured(banners []FeaturedBanner) Featured {
	// banners must encode as [] rather than null
	b := make([]FeaturedBanner, 0, len(banners))
	b = append(b, banners...)
	return Featured{
		Class:            featuredClass,
		ItemSize:         featuredItemSize,
		ItemCornerRadius: featuredCornerRadius,
		Banners:          b,
	}
}
