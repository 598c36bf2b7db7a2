/*
NAME
  bookmarks.go

DESCRIPTION
  bookmarks.go exports user frequency bookmarks to CSV: UTF-8, a fixed
  header row, standard CSV quoting via encoding/csv, plus manual
  formula-injection escaping for fields a spreadsheet would otherwise
  interpret as a formula, per spec.md §6. Bookmark storage and editing
  are a host-UI concern outside this package's scope; Export is the only
  entry point, matching container/mts/meta.go's standalone-package style.

AUTHOR
  Scott Barnard <scott@ausocean.org>

LICENSE
  This software is Copyright (C) 2024 the Australian Ocean Laboratory (AusOcean).

  It is free software: you can redistribute it and/or modify them
  under the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT ANY
  WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

// Package bookmarks exports user frequency bookmarks to CSV.
package bookmarks

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Bookmark is one saved frequency of interest.
type Bookmark struct {
	FrequencyHz float64
	Name        string
	Tags        []string
	Notes       string
	CreatedAt   time.Time
	LastUsedAt  time.Time
}

// header is the fixed CSV header row, per spec.md §6.
var header = []string{"Frequency (Hz)", "Name", "Tags", "Notes", "Created At", "Last Used"}

// formulaPrefixes are the leading characters a spreadsheet would treat as
// starting a formula.
const formulaPrefixes = "=+-@"

// Export writes bookmarks to w as UTF-8 CSV with the fixed header row.
func Export(w io.Writer, bookmarks []Bookmark) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "bookmarks: failed to write header row")
	}
	for _, b := range bookmarks {
		record := []string{
			escapeFormula(strconv.FormatFloat(b.FrequencyHz, 'f', -1, 64)),
			escapeFormula(b.Name),
			escapeFormula(strings.Join(b.Tags, ";")),
			escapeFormula(b.Notes),
			escapeFormula(b.CreatedAt.UTC().Format(time.RFC3339)),
			escapeFormula(b.LastUsedAt.UTC().Format(time.RFC3339)),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "bookmarks: failed to write row for %q", b.Name)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "bookmarks: failed to flush CSV writer")
	}
	return nil
}

// escapeFormula prefixes a field beginning with =, +, -, or @ with a
// single apostrophe, preventing spreadsheet formula injection on import.
// encoding/csv already handles comma/quote/CR/newline quoting, so this
// is the one escaping step this package must do itself.
func escapeFormula(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune(formulaPrefixes, rune(s[0])) {
		return "'" + s
	}
	return s
}
