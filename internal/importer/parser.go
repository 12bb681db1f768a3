package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ashmarket/discount-sync/internal/report"
	"github.com/ashmarket/discount-sync/internal/tablereader"
)

// DefaultColumnMapping projects spreadsheet column letters onto record
// fields. Columns without a mapping are ignored.
var DefaultColumnMapping = map[string]string{
	"A": "sku",
	"B": "targetPrice",
	"C": "activeFrom",
	"D": "activeTo",
	"E": "categoryId",
}

// dateLayout matches day/month/2-digit-year hour:minute cells, with or
// without zero padding.
const dateLayout = "2/1/06 15:04"

// Parse turns raw rows into validated records. A row is rejected when its
// SKU is empty or its target price is empty, non-numeric, or non-positive;
// rejections and recoverable field problems are reported as validation
// diagnostics carrying the 0-based row position.
func Parse(rows []tablereader.Row, mapping map[string]string) ([]Record, []report.Entry) {
	if mapping == nil {
		mapping = DefaultColumnMapping
	}

	var (
		records     []Record
		diagnostics []report.Entry
	)

	for i, row := range rows {
		fields := projectRow(row, mapping)

		sku := strings.TrimSpace(fields["sku"])
		rawPrice := strings.TrimSpace(fields["targetPrice"])

		price, priceErr := decimal.NewFromString(rawPrice)
		if sku == "" || rawPrice == "" || priceErr != nil || !price.IsPositive() {
			diagnostics = append(diagnostics, report.Entry{
				Kind:     report.KindValidation,
				Message:  "Invalid or empty price " + strconv.Quote(rawPrice) + "; rule skipped",
				SKU:      sku,
				RowIndex: i,
				Weight:   113,
			})
			continue
		}

		rec := Record{
			SKU:         sku,
			TargetPrice: price,
			RowIndex:    i,
		}

		rawFrom := strings.TrimSpace(fields["activeFrom"])
		rawTo := strings.TrimSpace(fields["activeTo"])
		rec.ActiveFrom = parseWindowDate(rawFrom)
		rec.ActiveTo = parseWindowDate(rawTo)
		if (rawFrom != "" && rec.ActiveFrom == nil) || (rawTo != "" && rec.ActiveTo == nil) {
			diagnostics = append(diagnostics, report.Entry{
				Kind:     report.KindValidation,
				Message:  "Invalid date format " + strconv.Quote(rawFrom) + " - " + strconv.Quote(rawTo) + "; processing continued without the value",
				SKU:      sku,
				RowIndex: i,
				Weight:   112,
			})
		}

		rawCategory := strings.TrimSpace(fields["categoryId"])
		rec.CategoryID = parseCategoryID(rawCategory)
		if rawCategory != "" && rec.CategoryID == nil {
			diagnostics = append(diagnostics, report.Entry{
				Kind:     report.KindValidation,
				Message:  "Invalid category identifier " + strconv.Quote(rawCategory) + "; processing continued without the value",
				SKU:      sku,
				RowIndex: i,
				Weight:   114,
			})
		}

		records = append(records, rec)
	}

	return records, diagnostics
}

// projectRow maps raw column letters to named fields.
func projectRow(row tablereader.Row, mapping map[string]string) map[string]string {
	fields := make(map[string]string, len(mapping))
	for letter, value := range row {
		if field, ok := mapping[letter]; ok {
			fields[field] = value
		}
	}
	return fields
}

func parseWindowDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// parseCategoryID accepts only strings made entirely of digit characters.
func parseCategoryID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return nil
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
