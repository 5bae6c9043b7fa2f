package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"teleimage/internal/storage"
)

const reportTopUsers = 10

// DailyStats summarises one day of activity.
type DailyStats struct {
	Date         string          `json:"date"`
	TotalPrompts int             `json:"total_prompts"`
	UniqueUsers  int             `json:"unique_users"`
	Users        []UserAnalytics `json:"users"`
}

// AnalyzeDailyLogs builds statistics for the calendar day of targetDate in its location.
func AnalyzeDailyLogs(records []storage.Record, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	var day []storage.Record
	for _, rec := range records {
		if rec.Timestamp.Before(startOfDay) || !rec.Timestamp.Before(endOfDay) {
			continue
		}
		day = append(day, rec)
	}

	users := Aggregate(day)
	return &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		TotalPrompts: len(day),
		UniqueUsers:  len(users),
		Users:        users,
	}
}

// GenerateReportSummary renders the stats as a plain-text chat message.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily report for %s\n\n", ds.Date)
	fmt.Fprintf(&b, "Images requested: %d\n", ds.TotalPrompts)
	fmt.Fprintf(&b, "Unique users: %d\n", ds.UniqueUsers)

	if len(ds.Users) == 0 {
		b.WriteString("\nNo activity.")
		return b.String()
	}

	b.WriteString("\nTop users:\n")
	for i, u := range ds.Users {
		if i == reportTopUsers {
			fmt.Fprintf(&b, "... and %d more\n", len(ds.Users)-reportTopUsers)
			break
		}
		label := u.Username
		if label != UnknownUsername {
			label = "@" + label
		}
		if u.Name != "" {
			label = u.Name + " (" + label + ")"
		}
		fmt.Fprintf(&b, "%d. %s [%d]: %d prompts\n", i+1, label, u.ChatID, u.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ToJSON serialises the stats for detailed inspection.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
