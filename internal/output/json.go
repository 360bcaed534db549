// Package output formats search results into external records and writes
// them as JSON or tab-delimited text.
package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// Results is one page of search results.
type Results struct {
	QueryID      string   `json:"queryId"`
	Records      []Record `json:"searchedVariants"`
	TotalResults int      `json:"totalResults"`
	Page         int      `json:"page"`
	NumResults   int      `json:"numResults"`
}

// WriteJSON writes results as indented JSON.
func WriteJSON(w io.Writer, res *Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
