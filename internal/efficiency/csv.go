package efficiency

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Data quality tiers for a loaded export, by fraction of rows kept.
const (
	QualityExcellent = "excellent" // > 95%
	QualityGood      = "good"      // > 85%
	QualityFair      = "fair"      // > 70%
	QualityPoor      = "poor"
)

// LoadResult is the outcome of parsing a charging-session export.
type LoadResult struct {
	Sessions []Session
	Skipped  int
	Issues   []string
	Quality  string
}

// Canonical column names and their known export aliases, lowercased.
// Covers the mobile-app, web and third-party logger export formats.
var columnAliases = map[string]string{
	"date":                        "date",
	"session date":                "date",
	"start time":                  "date",
	"charge start time":           "date",
	"energy added (kwh)":          "energy",
	"energy delivered (kwh)":      "energy",
	"energy added":                "energy",
	"kwh":                         "energy",
	"charge energy added":         "energy",
	"cost":                        "cost",
	"charge cost":                 "cost",
	"total cost":                  "cost",
	"cost ($)":                    "cost",
	"location":                    "location",
	"location name":               "location",
	"site":                        "location",
	"charger type":                "chargerType",
	"charger":                     "chargerType",
	"charge type":                 "chargerType",
	"charging time":               "duration",
	"duration":                    "duration",
	"duration (min)":              "duration",
	"charging duration (minutes)": "duration",
	"starting soc":                "startSOC",
	"start soc":                   "startSOC",
	"start %":                     "startSOC",
	"battery level start":         "startSOC",
	"ending soc":                  "endSOC",
	"end soc":                     "endSOC",
	"end %":                       "endSOC",
	"battery level end":           "endSOC",
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// LoadCSV parses a charging-session CSV export. Rows that fail to parse
// are skipped and recorded as issues rather than aborting the load; the
// error return is reserved for unreadable input or an unusable header.
func LoadCSV(r io.Reader, logger *slog.Logger) (*LoadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	cols := mapHeader(header)
	for _, required := range []string{"date", "energy", "cost"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv: missing required column %q", required)
		}
	}

	res := &LoadResult{}
	total := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			total++
			res.Skipped++
			res.Issues = append(res.Issues, fmt.Sprintf("row %d: %v", total, err))
			continue
		}
		total++
		s, rowErr := parseRow(record, cols)
		if rowErr != nil {
			res.Skipped++
			res.Issues = append(res.Issues, fmt.Sprintf("row %d: %v", total, rowErr))
			continue
		}
		res.Sessions = append(res.Sessions, s)
	}

	res.Quality = rateQuality(len(res.Sessions), total)
	logger.Info("csv: load complete",
		"rows", total, "kept", len(res.Sessions), "skipped", res.Skipped, "quality", res.Quality)
	return res, nil
}

func mapHeader(header []string) map[string]int {
	cols := make(map[string]int)
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if canonical, ok := columnAliases[name]; ok {
			if _, seen := cols[canonical]; !seen {
				cols[canonical] = i
			}
		}
	}
	return cols
}

func parseRow(record []string, cols map[string]int) (Session, error) {
	s := Session{StartSOC: socUnknown, EndSOC: socUnknown}

	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date, err := parseDate(field("date"))
	if err != nil {
		return Session{}, err
	}
	s.Date = date

	s.EnergyKWh, err = parseNumber(field("energy"))
	if err != nil {
		return Session{}, fmt.Errorf("energy: %w", err)
	}
	if s.EnergyKWh <= 0 {
		return Session{}, fmt.Errorf("energy: non-positive value %g", s.EnergyKWh)
	}

	s.Cost, err = parseNumber(field("cost"))
	if err != nil {
		return Session{}, fmt.Errorf("cost: %w", err)
	}
	if s.Cost < 0 {
		return Session{}, fmt.Errorf("cost: negative value %g", s.Cost)
	}

	s.Location = field("location")
	s.ChargerType = field("chargerType")

	// Optional fields degrade silently to their unknown values.
	if v, err := parseNumber(field("duration")); err == nil && v > 0 {
		s.DurationMinutes = v
	}
	if v, err := parseNumber(field("startSOC")); err == nil && v >= 0 && v <= 100 {
		s.StartSOC = v
	}
	if v, err := parseNumber(field("endSOC")); err == nil && v >= 0 && v <= 100 {
		s.EndSOC = v
	}
	return s, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("date: empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date: unrecognized format %q", raw)
}

// parseNumber accepts plain floats plus the currency and percent
// decorations the exports use ("$4.20", "85%", "1,234.5").
func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty")
	}
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return v, nil
}

func rateQuality(kept, total int) string {
	if total == 0 {
		return QualityPoor
	}
	ratio := float64(kept) / float64(total)
	switch {
	case ratio > 0.95:
		return QualityExcellent
	case ratio > 0.85:
		return QualityGood
	case ratio > 0.70:
		return QualityFair
	default:
		return QualityPoor
	}
}
