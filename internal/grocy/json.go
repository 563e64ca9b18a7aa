package grocy

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// flexInt decodes an integer sent either as a number or as a numeric string.
// Older Grocy releases serialize every column as a string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = flexInt(n)
	return nil
}

// flexAmount decodes a stock amount sent as a number, a string or null,
// keeping its textual form. Null reads as "0".
type flexAmount string

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		s = "0"
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	*f = flexAmount(s)
	return nil
}

type productJSON struct {
	ID                    flexInt `json:"id"`
	Name                  string  `json:"name"`
	Barcode               string  `json:"barcode"`
	DefaultBestBeforeDays flexInt `json:"default_best_before_days"`
}

type stockJSON struct {
	Product *productJSON `json:"product"`
	Unit    *struct {
		Name string `json:"name"`
	} `json:"quantity_unit_stock"`
	StockAmount flexAmount `json:"stock_amount"`
}

type choreJSON struct {
	ID   flexInt `json:"id"`
	Name string  `json:"name"`
}

type systemInfoJSON struct {
	GrocyVersion struct {
		Version string `json:"Version"`
	} `json:"grocy_version"`
}

func splitBarcodes(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
