// Package delivery computes the flat-rate delivery fee from the order
// subtotal and the destination postal code. The fee schedule is a
// deterministic two-tier table keyed by postal-district prefix; orders
// above the free threshold deliver at no charge anywhere on the island.
package delivery

type FeeConfig struct {
	FreeThreshold float64
	NearFee       float64
	FarFee        float64
	FarPrefixes   []string
}

type FeeCalculator struct {
	cfg         FeeConfig
	farPrefixes map[string]struct{}
}

func NewFeeCalculator(cfg FeeConfig) *FeeCalculator {
	far := make(map[string]struct{}, len(cfg.FarPrefixes))
	for _, p := range cfg.FarPrefixes {
		far[p] = struct{}{}
	}
	return &FeeCalculator{cfg: cfg, farPrefixes: far}
}

// Fee assumes postalCode already passed syntax validation upstream.
func (c *FeeCalculator) Fee(subtotal float64, postalCode string) float64 {
	if subtotal >= c.cfg.FreeThreshold {
		return 0
	}
	if len(postalCode) >= 2 {
		if _, far := c.farPrefixes[postalCode[:2]]; far {
			return c.cfg.FarFee
		}
	}
	return c.cfg.NearFee
}

func (c *FeeCalculator) FreeThreshold() float64 {
	return c.cfg.FreeThreshold
}
