// Package extractor turns a spreadsheet column of URLs into an ordered list of hosts.
package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/FranksOps/jast/internal/sheet"
)

var (
	// ErrNoHeader is returned for a sheet without any rows.
	ErrNoHeader = errors.New("sheet has no header row")
	// ErrColumnOutOfRange is returned when the column is not present in the header row.
	ErrColumnOutOfRange = errors.New("column out of range")
)

// Entry is one extracted host and the sheet row it came from.
type Entry struct {
	// Row is the 0-based index into the source sheet; the header is row 0,
	// so Row is always >= 1.
	Row  int
	Host string
}

// Extract reads column col of every data row (row 0 is the header), skips
// empty cells and maps each value through FQDN. Entries keep sheet order.
func Extract(rows sheet.Rows, col int) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	if col < 0 || col >= len(rows[0]) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrColumnOutOfRange, col, len(rows[0]))
	}

	entries := make([]Entry, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		v := rows.Cell(i, col)
		if v == "" {
			continue
		}
		entries = append(entries, Entry{Row: i, Host: FQDN(v)})
	}
	return entries, nil
}

// Hosts returns just the host strings of entries, in order.
func Hosts(entries []Entry) []string {
	hosts := make([]string, len(entries))
	for i, e := range entries {
		hosts[i] = e.Host
	}
	return hosts
}

// FQDN returns the lower-cased hostname of an absolute URL with one leading
// "www." removed. Values that are not absolute URLs are returned unchanged.
func FQDN(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
