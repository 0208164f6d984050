package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocentral/internal/model"
)

// ReadCSVFile decodes listings from the CSV file at path.
func ReadCSVFile(ctx context.Context, path string) ([]model.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(ctx, f)
}

// ReadCSV decodes listings from CSV data with a header row.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.Listing, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	listings, err := decodeRows(ctx, reader)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}
	return listings, nil
}
