package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sells-group/geocentral/internal/spatial"
)

// OptionalFloat is a float64 that may be absent. Missing or unparseable
// cells decode to an invalid value rather than a sentinel number.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Some returns a present OptionalFloat.
func Some(v float64) OptionalFloat { return OptionalFloat{Value: v, Valid: true} }

// None returns an absent OptionalFloat.
func None() OptionalFloat { return OptionalFloat{} }

// ParseOptionalFloat parses s leniently: blank or malformed input is None.
func ParseOptionalFloat(s string) OptionalFloat {
	s = strings.TrimSpace(s)
	if s == "" {
		return None()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None()
	}
	return Some(v)
}

// Or returns the value when present, otherwise def.
func (o OptionalFloat) Or(def float64) float64 {
	if o.Valid {
		return o.Value
	}
	return def
}

// UnmarshalCSV implements csvutil.Unmarshaler.
func (o *OptionalFloat) UnmarshalCSV(data []byte) error {
	*o = ParseOptionalFloat(string(data))
	return nil
}

// MarshalCSV implements csvutil.Marshaler.
func (o OptionalFloat) MarshalCSV() ([]byte, error) {
	if !o.Valid {
		return nil, nil
	}
	return []byte(strconv.FormatFloat(o.Value, 'f', -1, 64)), nil
}

// MarshalJSON encodes None as null.
func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON accepts null, a number, or a numeric string.
func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = None()
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = ParseOptionalFloat(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Listing is one rental listing row. Only Latitude and Longitude take part in
// graph construction; RentPerSqft feeds the price prediction.
type Listing struct {
	Address          string        `csv:"Address" json:"address,omitempty"`
	Rent             OptionalFloat `csv:"Rent" json:"rent"`
	Beds             OptionalFloat `csv:"Beds" json:"beds"`
	Baths            OptionalFloat `csv:"Baths" json:"baths"`
	Latitude         OptionalFloat `csv:"Latitude" json:"latitude"`
	Longitude        OptionalFloat `csv:"Longitude" json:"longitude"`
	RentPerSqft      OptionalFloat `csv:"Rent_per_sqft" json:"rent_per_sqft"`
	AgeOfListingDays OptionalFloat `csv:"Age_of_listing_in_days" json:"age_of_listing_in_days"`
	Location         string        `csv:"Location" json:"location,omitempty"`
	City             string        `csv:"City" json:"city,omitempty"`
}

// Coordinates implements spatial.Locatable.
func (l Listing) Coordinates() (spatial.Coordinate, bool) {
	if !l.Latitude.Valid || !l.Longitude.Valid {
		return spatial.Coordinate{}, false
	}
	return spatial.Coordinate{Lat: l.Latitude.Value, Lon: l.Longitude.Value}, true
}

// CountLocated returns how many listings carry both coordinates.
func CountLocated(listings []Listing) int {
	var n int
	for _, l := range listings {
		if _, ok := l.Coordinates(); ok {
			n++
		}
	}
	return n
}
