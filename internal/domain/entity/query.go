package entity

import (
	"errors"
	"strings"
)

// DefaultCountry is used by the importation research when the caller gives no country
const DefaultCountry = "the relevant country"

// Query represents one port call clearance request
type Query struct {
	Port         string `json:"port_name"`
	ArrivalDate  string `json:"arrival_date"`
	ActivityType string `json:"activity_type"`
	YachtFlag    string `json:"yacht_flag"`
	Country      string `json:"country,omitempty"`
}

// Validate checks that the required query fields are present
func (q Query) Validate() error {
	var missing []string
	if strings.TrimSpace(q.Port) == "" {
		missing = append(missing, "port_name")
	}
	if strings.TrimSpace(q.ArrivalDate) == "" {
		missing = append(missing, "arrival_date")
	}
	if strings.TrimSpace(q.ActivityType) == "" {
		missing = append(missing, "activity_type")
	}
	if strings.TrimSpace(q.YachtFlag) == "" {
		missing = append(missing, "yacht_flag")
	}
	if len(missing) > 0 {
		return errors.New("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// CacheKey returns the normalized cache fingerprint of the query.
// Arrival date and country do not take part in the key. Parts are joined with
// "_" after escaping "_" and "%" inside each part, so port "a_b" with activity
// "c" and port "a" with activity "b_c" get different keys.
func (q Query) CacheKey() string {
	return normalizeKeyPart(q.Port) + "_" + normalizeKeyPart(q.ActivityType) + "_" + normalizeKeyPart(q.YachtFlag)
}

// CountryOrDefault returns the country or the generic placeholder
func (q Query) CountryOrDefault() string {
	if c := strings.TrimSpace(q.Country); c != "" {
		return c
	}
	return DefaultCountry
}

var keyPartEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

func normalizeKeyPart(s string) string {
	return keyPartEscaper.Replace(strings.ToLower(strings.TrimSpace(s)))
}
