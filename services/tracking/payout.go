package tracking

import "creatorlink-platform/pkg/money"

// CalculateCPMPayout prices min(totalViews, maxViews) against a CPM rate.
// The cap always applies: a campaign with maxViews of zero pays nothing.
// Negative inputs clamp to zero so a bad upstream count can never produce a
// negative payout.
func CalculateCPMPayout(totalViews, maxViews int64, cpmRate float64) float64 {
	if totalViews < 0 {
		totalViews = 0
	}
	if maxViews < 0 {
		maxViews = 0
	}
	if cpmRate < 0 {
		cpmRate = 0
	}
	billable := totalViews
	if billable > maxViews {
		billable = maxViews
	}
	return money.Round2(float64(billable) / 1000 * cpmRate)
}
