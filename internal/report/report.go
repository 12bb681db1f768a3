package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind classifies a report entry.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "notFound"
	KindNotice     Kind = "notice"
	KindAdd        Kind = "add"
	KindUpdate     Kind = "update"
	KindDelete     Kind = "delete"
	KindError      Kind = "error"
)

// Entry is a single diagnostic or outcome line. RowIndex is zero when the
// entry is not tied to a spreadsheet row; SKU is empty when not applicable.
type Entry struct {
	Kind     Kind
	Message  string
	SKU      string
	RowIndex int
	Weight   int
}

// Collector accumulates entries over one run. Entries are kept in insertion
// order until rendering; ordering is (Weight, RowIndex) ascending.
type Collector struct {
	entries []Entry
}

func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a single entry.
func (c *Collector) Add(e Entry) {
	c.entries = append(c.entries, e)
}

// Addf appends an entry with a formatted message.
func (c *Collector) Addf(kind Kind, weight, rowIndex int, sku, format string, args ...interface{}) {
	c.Add(Entry{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		SKU:      sku,
		RowIndex: rowIndex,
		Weight:   weight,
	})
}

// Extend appends entries produced elsewhere (e.g. by the parser).
func (c *Collector) Extend(entries []Entry) {
	c.entries = append(c.entries, entries...)
}

// Len returns the number of accumulated entries.
func (c *Collector) Len() int {
	return len(c.entries)
}

// Entries returns the accumulated entries sorted by (Weight, RowIndex).
func (c *Collector) Entries() []Entry {
	sorted := make([]Entry, len(c.entries))
	copy(sorted, c.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight < sorted[j].Weight
		}
		return sorted[i].RowIndex < sorted[j].RowIndex
	})
	return sorted
}

// CountByKind tallies entries per kind, keyed in first-appearance order of
// the sorted entry list.
func (c *Collector) CountByKind() ([]Kind, map[Kind]int) {
	var order []Kind
	counts := make(map[Kind]int)
	for _, e := range c.Entries() {
		if _, seen := counts[e.Kind]; !seen {
			order = append(order, e.Kind)
		}
		counts[e.Kind]++
	}
	return order, counts
}

// Render produces the human-readable multi-line report: a timestamp header,
// a count-by-kind summary, then one line per entry. Row number is omitted
// when zero, SKU when empty.
func (c *Collector) Render(now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report %s\n", now.Format("2006.01.02 15:04:05"))

	order, counts := c.CountByKind()
	for _, kind := range order {
		fmt.Fprintf(&b, "[%s]: %d\n", kind, counts[kind])
	}
	b.WriteString("\n")

	for _, e := range c.Entries() {
		b.WriteString(FormatLine(e))
		b.WriteString("\n")
	}

	return b.String()
}

// FormatLine renders one entry as `[kind] Row <n>; <message>; SKU "<sku>"`.
func FormatLine(e Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]", e.Kind)
	if e.RowIndex != 0 {
		fmt.Fprintf(&b, " Row %d;", e.RowIndex)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " %s;", e.Message)
	}
	if e.SKU != "" {
		fmt.Fprintf(&b, " SKU %q", e.SKU)
	}

	return strings.TrimRight(b.String(), " ")
}
