package models

import "encoding/json"

// JurisdictionStatistics summarises the records of a single jurisdiction.
type JurisdictionStatistics struct {
	TotalEntries              int     `json:"total_entries"`
	UniqueHSHeadings          int     `json:"unique_hs_headings"`
	AvgDescriptionsPerHeading float64 `json:"avg_descriptions_per_heading"`
}

// Statistics is a read-only summary computed from a dataset.
type Statistics struct {
	TotalEntries      int
	EntriesByCountry  map[Jurisdiction]int
	UniqueHSHeadings  int
	UniqueTariffItems int
	ByJurisdiction    map[Jurisdiction]JurisdictionStatistics
}

// MarshalJSON flattens the per-jurisdiction blocks into "<country>_statistics" keys.
func (s Statistics) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"total_entries":       s.TotalEntries,
		"entries_by_country":  s.EntriesByCountry,
		"unique_hs_headings":  s.UniqueHSHeadings,
		"unique_tariff_items": s.UniqueTariffItems,
	}
	for j, js := range s.ByJurisdiction {
		out[j.Key()+"_statistics"] = js
	}
	return json.Marshal(out)
}
