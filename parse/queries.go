package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"
)

// A row in a batch query file.
type QueryCSV struct {
	StopID      string `csv:"stop_id"`
	Route       string `csv:"route"`
	Destination string `csv:"destination"`
}

// Parses a CSV file of departure queries. Columns route and
// destination are optional, stop_id is not.
func ParseQueries(data io.Reader) ([]*QueryCSV, error) {
	queries := []*QueryCSV{}

	// LazyCSVReader to survive sloppy quoting. Spreadsheet exports
	// tend to come with a BOM, so strip that too.
	reader := gocsv.LazyCSVReader(bom.NewReader(data))

	err := gocsv.UnmarshalCSV(reader, &queries)
	if err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []*QueryCSV{}, nil
		}
		return nil, errors.Wrap(err, "unmarshaling queries csv")
	}

	for i, q := range queries {
		if q.StopID == "" {
			return nil, fmt.Errorf("missing stop_id (row %d)", i+1)
		}
	}

	return queries, nil
}
