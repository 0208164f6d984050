// Package ingest reads rental listings from tabular files.
//
// Column names are matched case-insensitively, with spaces and dashes treated
// as underscores, so "Rent per sqft" and "rent_per_sqft" both bind to
// Listing.RentPerSqft. Coordinate cells that are blank or not numbers decode
// as missing; such listings are kept here and dropped later by the graph
// builder.
package ingest

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/geocentral/internal/model"
)

// Format identifies an input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// canonicalColumns maps normalized header names to Listing csv tags.
var canonicalColumns = map[string]string{
	"address":                "Address",
	"rent":                   "Rent",
	"beds":                   "Beds",
	"baths":                  "Baths",
	"latitude":               "Latitude",
	"lat":                    "Latitude",
	"longitude":              "Longitude",
	"lon":                    "Longitude",
	"lng":                    "Longitude",
	"rent_per_sqft":          "Rent_per_sqft",
	"age_of_listing_in_days": "Age_of_listing_in_days",
	"location":               "Location",
	"city":                   "City",
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("ingest: unsupported file extension %q", filepath.Ext(path))
	}
}

// Load reads all listings from path, choosing the decoder by extension.
func Load(ctx context.Context, path string) ([]model.Listing, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var listings []model.Listing
	switch format {
	case FormatXLSX:
		listings, err = ReadXLSX(ctx, path, XLSXOptions{})
	default:
		listings, err = ReadCSVFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ingest: loaded listings",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("listings", len(listings)),
		zap.Int("located", model.CountLocated(listings)),
	)
	return listings, nil
}

// rowReader is the row source csvutil decodes from.
type rowReader interface {
	Read() ([]string, error)
}

// decodeRows reads a header row from r, canonicalizes it, and decodes every
// remaining row into a Listing.
func decodeRows(ctx context.Context, r rowReader) ([]model.Listing, error) {
	header, err := r.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: input has no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read header")
	}

	dec, err := csvutil.NewDecoder(r, CanonicalHeader(header)...)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create decoder")
	}

	var listings []model.Listing
	for row := 2; ; row++ {
		if row%1024 == 0 && ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: cancelled")
		}

		var l model.Listing
		if err := dec.Decode(&l); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "ingest: decode row %d", row)
		}
		normalize(&l)
		listings = append(listings, l)
	}
	return listings, nil
}

// CanonicalHeader rewrites known column names to the Listing csv tags and
// leaves unknown columns as they are so they are ignored.
func CanonicalHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
		if canon, ok := canonicalColumns[key]; ok {
			out[i] = canon
		} else {
			out[i] = h
		}
	}
	return dedupeHeader(out)
}

// dedupeHeader suffixes repeated names; csvutil rejects duplicate columns.
func dedupeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		seen[h]++
		if n := seen[h]; n > 1 {
			header[i] = h + "__" + string(rune('0'+min(n, 9)))
		}
	}
	return header
}

var titleCaser = cases.Title(language.English)

func normalize(l *model.Listing) {
	l.Address = strings.TrimSpace(l.Address)
	l.City = titleCaser.String(strings.ToLower(strings.TrimSpace(l.City)))
	l.Location = strings.TrimSpace(l.Location)
}
