package storage

import "os"

// MigrateLegacy performs the legacy-monolithic-file migration as a
// standalone step, independent of a normal save cycle, so the CLI's debug
// inspect command can invoke it directly. It is a no-op (returns false) when
// no legacy file of either dataset exists.
//
// Ordinary SaveStats/SaveInputAnalytics calls already remove the legacy file
// as a side effect once any save happens; this entry point exists for
// callers that want migration to run before the first live flush.
func (s *JSONFileStorage) MigrateLegacy() (migrated bool, err error) {
	if _, statErr := os.Stat(s.legacyStatsPath()); statErr == nil {
		rows, loadErr := s.LoadStats()
		if loadErr != nil {
			return false, loadErr
		}
		if err := s.SaveStats(rows); err != nil {
			return false, err
		}
		migrated = true
	}

	if _, statErr := os.Stat(s.legacyAnalyticsPath()); statErr == nil {
		analytics, loadErr := s.LoadInputAnalytics()
		if loadErr != nil {
			return false, loadErr
		}
		if err := s.SaveInputAnalytics(analytics); err != nil {
			return false, err
		}
		migrated = true
	}

	return migrated, nil
}
