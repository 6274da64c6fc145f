package dispatch

import "github.com/mtafreight/dispatch-gateway/pkg/freight"

// FilterEligible returns the transporters that can take the order: they
// must be available and serve the exact pickup-to-delivery leg. Address
// comparison ignores case.
func FilterEligible(order freight.Order, transporters []freight.Transporter) []freight.Transporter {
	eligible := make([]freight.Transporter, 0)
	for _, t := range transporters {
		if !t.IsAvailable {
			continue
		}
		if !t.ServesRoute(order.SenderAddress(), order.RecipientAddress()) {
			continue
		}
		eligible = append(eligible, t)
	}
	return eligible
}
