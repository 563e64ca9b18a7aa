package catalog

import "time"

// NeverExpires is the shelf life, in days, of products that do not spoil.
const NeverExpires = -1

// FarFutureDate is the best before date booked for NeverExpires products.
const FarFutureDate = "2999-12-31"

const dateLayout = "2006-01-02"

// BestBeforeDate returns the date days after now, or FarFutureDate for
// NeverExpires. The date is taken in now's location.
func BestBeforeDate(now time.Time, days int) string {
	if days == NeverExpires {
		return FarFutureDate
	}
	return now.AddDate(0, 0, days).Format(dateLayout)
}
