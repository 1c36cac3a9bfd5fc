// Package csvmirror emits the derived, idempotent CSV mirror of the bucket
// table, rewritten in full on every flush tick: encoding/csv plus a
// temp-then-rename write, matching the persistence layer's atomic-write
// discipline.
package csvmirror

import (
	"bytes"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/corvid-labs/typingstats/snapshot"
)

// header is the mirror's fixed column order.
var header = []string{"date", "app_name", "window_title", "active_typing_ms", "key_count", "session_count"}

// Write overwrites path with the sorted row snapshot, quoting fields that
// contain a comma, double quote, or newline per RFC 4180.
func Write(path string, rows []snapshot.BucketRow) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date,
			r.AppName,
			r.WindowTitle,
			strconv.FormatUint(r.ActiveTypingMs, 10),
			strconv.FormatUint(r.KeyCount, 10),
			strconv.FormatUint(r.SessionCount, 10),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
