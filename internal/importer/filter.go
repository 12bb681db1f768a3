package importer

import (
	"sort"
	"time"
)

// Filter drops expired records and collapses duplicate SKUs, returning the
// survivors in original row order.
//
// A record expires when its ActiveTo is set and strictly before now; records
// without an end date always pass this stage. Among duplicates of one SKU
// only the lowest target price survives (ties keep the first encountered by
// row index). Suppressed duplicates are not diagnosed: best available price
// wins silently.
func Filter(records []Record, now time.Time) []Record {
	active := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.ActiveTo != nil && rec.ActiveTo.Before(now) {
			continue
		}
		active = append(active, rec)
	}

	byPrice := make([]Record, len(active))
	copy(byPrice, active)
	sort.SliceStable(byPrice, func(i, j int) bool {
		if cmp := byPrice[i].TargetPrice.Cmp(byPrice[j].TargetPrice); cmp != 0 {
			return cmp < 0
		}
		return byPrice[i].RowIndex < byPrice[j].RowIndex
	})

	seen := make(map[string]struct{}, len(byPrice))
	kept := make([]Record, 0, len(byPrice))
	for _, rec := range byPrice {
		if _, dup := seen[rec.SKU]; dup {
			continue
		}
		seen[rec.SKU] = struct{}{}
		kept = append(kept, rec)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RowIndex < kept[j].RowIndex
	})

	return kept
}
