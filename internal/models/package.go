package models

// CoinPackage is one entry in the fixed top-up catalog. Prices are quoted in
// both VND and USD; Coins is what gets credited on success.
type CoinPackage struct {
	ID        string `json:"id"`
	Coins     int64  `json:"coins"`
	PriceVND  int64  `json:"price_vnd"`
	PriceUSD  int64  `json:"price_usd"`
	Label     string `json:"label"`
	Popular   bool   `json:"popular,omitempty"`
	BestValue bool   `json:"best_value,omitempty"`
}

// CoinPackages is the static catalog. The whale pack sits at the simulated
// gateway's decline threshold on purpose so the failure flow stays reachable.
var CoinPackages = []CoinPackage{
	{ID: "starter", Coins: 20, PriceVND: 10000, PriceUSD: 1, Label: "Starter Pack"},
	{ID: "popular", Coins: 100, PriceVND: 50000, PriceUSD: 5, Label: "Popular Pack", Popular: true},
	{ID: "value", Coins: 300, PriceVND: 120000, PriceUSD: 12, Label: "Value Pack", BestValue: true},
	{ID: "whale", Coins: 500, PriceVND: 200000, PriceUSD: 20, Label: "Whale Pack"},
}

// CoinPackageByID looks a package up in the catalog. Returns nil when the id
// is unknown.
func CoinPackageByID(id string) *CoinPackage {
	for i := range CoinPackages {
		if CoinPackages[i].ID == id {
			return &CoinPackages[i]
		}
	}
	return nil
}
