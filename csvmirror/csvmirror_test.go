package csvmirror

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corvid-labs/typingstats/snapshot"
)

func TestWriteHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	rows := []snapshot.BucketRow{
		{Date: "2026-07-31 10:00", AppName: "editor", WindowTitle: "main.go", ActiveTypingMs: 100, KeyCount: 5, SessionCount: 1},
	}
	if err := Write(path, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != "date,app_name,window_title,active_typing_ms,key_count,session_count" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2026-07-31 10:00,editor,main.go,100,5,1" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriteQuotesFieldsTable(t *testing.T) {
	cases := []struct {
		name     string
		title    string
		wantPart string
	}{
		{"comma", "a, b", `"a, b"`},
		{"quote", `a "b" c`, `"a ""b"" c"`},
		{"newline", "a\nb", "\"a\nb\""},
		{"plain", "plain", "plain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log.csv")
			rows := []snapshot.BucketRow{{Date: "2026-07-31 10:00", AppName: "editor", WindowTitle: tc.title}}
			if err := Write(path, rows); err != nil {
				t.Fatalf("Write: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !strings.Contains(string(data), tc.wantPart) {
				t.Errorf("output %q does not contain expected quoted part %q", data, tc.wantPart)
			}
		})
	}
}

func TestWriteIsIdempotentOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	first := []snapshot.BucketRow{{Date: "2026-07-31 10:00", AppName: "a", WindowTitle: "w"}}
	second := []snapshot.BucketRow{{Date: "2026-07-31 10:01", AppName: "b", WindowTitle: "w2"}}

	if err := Write(path, first); err != nil {
		t.Fatalf("Write first: %v", err)
	}
	if err := Write(path, second); err != nil {
		t.Fatalf("Write second: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "2026-07-31 10:00") {
		t.Errorf("expected full overwrite, found stale row in %q", data)
	}
}
