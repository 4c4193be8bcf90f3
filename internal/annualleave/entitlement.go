package annualleave

import "math"

// Statutory attendance threshold. Below it the tenure table does not apply
// and entitlement degrades to an estimate of perfect months.
const perfectAttendanceThreshold = 80.0

// entitlementTier maps a minimum of full service years to annual leave days.
// Tiers are checked from the longest tenure down.
type entitlementTier struct {
	minYears float64
	days     int
}

var entitlementTiers = []entitlementTier{
	{21, 25},
	{19, 24},
	{17, 23},
	{15, 22},
	{13, 21},
	{11, 20},
	{9, 19},
	{7, 18},
	{5, 17},
	{3, 16},
	{1, 15},
}

// EntitlementDays computes the annual leave entitlement for an employee with
// the given tenure and prior-year attendance rate.
//
// Below the 80% attendance threshold the entitlement is estimated as one day
// per perfect month, capped at 11. At or above the threshold the tenure table
// applies: 15 days from the first full year, one extra day per two further
// years, capped at 25. Under one year of service the annual table yields
// zero; those employees accrue through the monthly path instead.
func EntitlementDays(yearsOfService, attendanceRate float64) int {
	if attendanceRate < perfectAttendanceThreshold {
		if attendanceRate < 0 {
			attendanceRate = 0
		}
		perfectMonths := int(math.Floor(attendanceRate / 100 * 12))
		if perfectMonths > 11 {
			return 11
		}
		return perfectMonths
	}

	for _, tier := range entitlementTiers {
		if yearsOfService >= tier.minYears {
			return tier.days
		}
	}
	return 0
}
