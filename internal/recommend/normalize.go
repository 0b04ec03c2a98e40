package recommend

import (
	"regexp"
	"strconv"
	"strings"

	"travel_recommender/internal/domain"
)

var (
	// "3. Bali", "12 - Lagos", " 7 Abuja"
	ordinalPrefix = regexp.MustCompile(`^\s*\d+[.\-\s]*`)
	// currency marker on either side of a comma-grouped integer: "NGN 120,000", "120000 USD", "$95"
	pricePattern = regexp.MustCompile(`^([^\d\s,\-]*)\s*(-?\d[\d,]*)\s*([^\d\s,\-]*)$`)
)

// CleanName strips leading ordinal prefixes. Stripping repeats until the name
// stops changing so the result is stable under reapplication. A name that is
// nothing but an ordinal is left as is.
func CleanName(name string) string {
	out := name
	for {
		next := ordinalPrefix.ReplaceAllString(out, "")
		if next == out {
			break
		}
		out = next
	}
	if strings.TrimSpace(out) == "" {
		return name
	}
	return out
}

// ParsePrice splits a raw price into its currency marker and integer amount.
func ParsePrice(raw string) (currency string, amount int64, ok bool) {
	m := pricePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
	if err != nil {
		return "", 0, false
	}
	currency = m[1]
	if currency == "" {
		currency = m[3]
	}
	return currency, n, true
}

// NormalizePrice re-renders raw as "<CURRENCY> 120,000". Unparsable or zero
// prices come back unchanged with ok=false.
func NormalizePrice(raw, defaultCurrency string) (string, bool) {
	cur, n, ok := ParsePrice(raw)
	if !ok || n == 0 {
		return raw, false
	}
	if cur == "" {
		cur = defaultCurrency
	}
	return cur + " " + FormatThousands(n), true
}

func FormatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

// View normalizes d for display and scores it against p.
func View(d domain.Destination, p domain.PreferenceProfile, currency string) domain.DestinationView {
	v := domain.DestinationView{
		ID:      d.ID,
		Name:    CleanName(d.Name),
		City:    d.City,
		Climate: d.Climate,
		Budget:  d.Budget,
		Info:    d.Info,
		Rating:  d.Rating,
		Price:   d.Price,
		Image:   d.ImageURL,
		Score:   Score(d, p),
	}
	if d.Price != nil {
		if s, ok := NormalizePrice(*d.Price, currency); ok {
			v.Price = &s
		}
	}
	return v
}
