package storage

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/corvid-labs/typingstats/clock"
)

// LoadInputAnalytics merges the legacy monolithic analytics file (if
// present) with every daily analytics shard. shortcut_usage is never read
// back (it is always persisted empty and rebuilt from chunks elsewhere);
// app_dict entries are unioned and next_app_ref is the maximum seen.
func (s *JSONFileStorage) LoadInputAnalytics() (Analytics, error) {
	result := Analytics{AppDict: make(map[uint32]string)}

	legacyPath := s.legacyAnalyticsPath()
	if data, err := os.ReadFile(legacyPath); err == nil {
		doc, perr := parseAnalyticsPayload(data)
		if perr != nil {
			return Analytics{}, &Error{Kind: ErrMalformedLegacy, Op: "load", Path: legacyPath, Err: perr}
		}
		mergeAnalyticsDocument(&result, doc)
	} else if !os.IsNotExist(err) {
		return Analytics{}, &Error{Kind: ErrIO, Op: "load", Path: legacyPath, Err: err}
	}

	dates, err := listDailyShards(s.dir, "-analytics-"+s.baseName)
	if err != nil {
		return Analytics{}, err
	}
	for _, date := range dates {
		path := s.dailyAnalyticsPath(date)
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			continue
		}
		doc, perr := parseAnalyticsPayload(data)
		if perr != nil {
			continue
		}
		mergeAnalyticsDocument(&result, doc)
	}

	if result.NextAppRef == 0 {
		result.NextAppRef = 1
	}
	return result, nil
}

func parseAnalyticsPayload(data []byte) (AnalyticsDocument, error) {
	var doc AnalyticsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return AnalyticsDocument{}, err
	}
	return doc, nil
}

func mergeAnalyticsDocument(result *Analytics, doc AnalyticsDocument) {
	for refStr, appID := range doc.AppDict {
		ref, err := strconv.ParseUint(refStr, 10, 32)
		if err != nil {
			continue
		}
		result.AppDict[uint32(ref)] = appID
	}
	if doc.NextAppRef > result.NextAppRef {
		result.NextAppRef = doc.NextAppRef
	}
	result.Chunks = append(result.Chunks, doc.EventChunks...)
}

// SaveInputAnalytics groups chunks by the local calendar date derived from
// chunk_start_ms, writes one shard per group (scoping app_dict to the
// app_refs actually referenced within it), deletes daily shards whose date
// is no longer present (reclaiming space after a stats clear), then removes
// the legacy monolithic file.
func (s *JSONFileStorage) SaveInputAnalytics(a Analytics) error {
	groups := make(map[string][]ChunkDocument)
	for _, c := range a.Chunks {
		date := clock.MsToLocalDate(c.ChunkStartMs)
		groups[date] = append(groups[date], c)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &Error{Kind: ErrIO, Op: "mkdir", Path: s.dir, Err: err}
	}

	for date, chunks := range groups {
		doc := AnalyticsDocument{
			ShortcutUsage: map[string]any{},
			AppDict:       scopedAppDict(a.AppDict, chunks),
			NextAppRef:    a.NextAppRef,
			EventChunks:   chunks,
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return &Error{Kind: ErrIO, Op: "marshal", Path: s.dailyAnalyticsPath(date), Err: err}
		}
		if err := writeAtomic(s.dailyAnalyticsPath(date), data); err != nil {
			return err
		}
	}

	existingDates, err := listDailyShards(s.dir, "-analytics-"+s.baseName)
	if err != nil {
		return err
	}
	for _, date := range existingDates {
		if _, stillPresent := groups[date]; !stillPresent {
			_ = os.Remove(s.dailyAnalyticsPath(date))
		}
	}

	_ = os.Remove(s.legacyAnalyticsPath())
	return nil
}

// scopedAppDict returns only the app_dict entries referenced by chunks.
func scopedAppDict(full map[uint32]string, chunks []ChunkDocument) map[string]string {
	refs := make(map[uint32]struct{}, len(chunks))
	for _, c := range chunks {
		refs[c.AppRef] = struct{}{}
	}
	scoped := make(map[string]string, len(refs))
	for ref := range refs {
		if appID, ok := full[ref]; ok {
			scoped[strconv.FormatUint(uint64(ref), 10)] = appID
		}
	}
	return scoped
}
