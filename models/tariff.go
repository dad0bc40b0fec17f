// Package models defines data structures for the tariff scraper.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Jurisdiction identifies a tariff source and partitions the dataset.
type Jurisdiction string

const (
	Canada Jurisdiction = "CANADA"
	Mexico Jurisdiction = "MEXICO"
	China  Jurisdiction = "CHINA"
)

// Jurisdictions returns the supported jurisdictions in declaration order.
func Jurisdictions() []Jurisdiction {
	return []Jurisdiction{Canada, Mexico, China}
}

// ParseJurisdiction matches name case-insensitively against the supported set.
func ParseJurisdiction(name string) (Jurisdiction, error) {
	candidate := Jurisdiction(strings.ToUpper(strings.TrimSpace(name)))
	for _, j := range Jurisdictions() {
		if j == candidate {
			return j, nil
		}
	}
	return "", fmt.Errorf("unknown jurisdiction %q", name)
}

// Valid reports whether j is one of the supported jurisdictions.
func (j Jurisdiction) Valid() bool {
	_, err := ParseJurisdiction(string(j))
	return err == nil
}

// Key is the lower-case form used in statistics keys.
func (j Jurisdiction) Key() string {
	return strings.ToLower(string(j))
}

func (j Jurisdiction) String() string {
	return string(j)
}

// UnmarshalText lets YAML and env values use any letter case.
func (j *Jurisdiction) UnmarshalText(text []byte) error {
	parsed, err := ParseJurisdiction(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// DefaultEncoding is assumed when a target does not name one.
const DefaultEncoding = "utf-8"

// Target describes one page to scrape. It is passed by value and never
// modified after construction.
type Target struct {
	URL          string            `yaml:"url" json:"url"`
	Jurisdiction Jurisdiction      `yaml:"jurisdiction" json:"jurisdiction"`
	Language     string            `yaml:"language" json:"language"`
	Encoding     string            `yaml:"encoding,omitempty" json:"encoding,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// NewTarget builds a target with the default encoding and a private copy of headers.
func NewTarget(url string, jurisdiction Jurisdiction, language string, headers map[string]string) Target {
	var copied map[string]string
	if headers != nil {
		copied = make(map[string]string, len(headers))
		for k, v := range headers {
			copied[k] = v
		}
	}
	return Target{
		URL:          url,
		Jurisdiction: jurisdiction,
		Language:     language,
		Encoding:     DefaultEncoding,
		Headers:      copied,
	}
}

// CharacterEncoding returns the configured encoding or the default.
func (t Target) CharacterEncoding() string {
	if strings.TrimSpace(t.Encoding) == "" {
		return DefaultEncoding
	}
	return t.Encoding
}

// Record is one row of a tariff schedule.
type Record struct {
	TariffItem   string       `json:"Tariff Item"`
	HSHeading    string       `json:"HS Heading"`
	Description  string       `json:"Description"`
	Jurisdiction Jurisdiction `json:"Country"`
	CollectedAt  time.Time    `json:"Scrape_Date"`
}

// RecordColumns are the column headers shared by the tabular outputs.
var RecordColumns = []string{"Tariff Item", "HS Heading", "Description", "Country", "Scrape_Date"}
