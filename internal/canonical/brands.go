package canonical

import "strings"

type brand struct {
	needle string
	name   string
}

// brands maps lowercase substrings of raw descriptions to a display name.
// Payment platforms are absent on purpose; the detector owns them.
var brands = []brand{
	{"amzn mktp us", "Amazon"},
	{"amazon.com", "Amazon"},
	{"amzn", "Amazon"},
	{"amazon", "Amazon"},
	{"uber trip", "Uber"},
	{"uber eats", "Uber Eats"},
	{"uber", "Uber"},
	{"lyft", "Lyft"},
	{"dd doordash", "DoorDash"},
	{"doordash", "DoorDash"},
	{"wholefds", "Whole Foods Market"},
	{"wholefd market", "Whole Foods Market"},
	{"whole foods", "Whole Foods Market"},
	{"trader joes", "Trader Joe's"},
	{"trader joe", "Trader Joe's"},
	{"walmart", "Walmart"},
	{"wal-mart", "Walmart"},
	{"target", "Target"},
	{"costco", "Costco"},
	{"home depot", "Home Depot"},
	{"lowes", "Lowe's"},
	{"lowe's", "Lowe's"},
	{"square *", "Square"},
	{"sq *", "Square"},
	{"stripe", "Stripe"},
	{"airbnb", "Airbnb"},
	{"booking.com", "Booking.com"},
	{"marriott", "Marriott"},
	{"hilton", "Hilton"},
	{"netflix", "Netflix"},
	{"spotify", "Spotify"},
	{"starbucks", "Starbucks"},
}

// KnownBrand looks text up in the brand table. Matching is on lowercase
// substrings, first hit wins.
func KnownBrand(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, b := range brands {
		if strings.Contains(lower, b.needle) {
			return b.name, true
		}
	}
	return "", false
}
