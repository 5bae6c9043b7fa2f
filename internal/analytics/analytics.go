package analytics

import (
	"sort"
	"strings"
	"time"

	"teleimage/internal/storage"
)

// UnknownUsername stands in for users without a Telegram username.
const UnknownUsername = "N/A"

// Prompt is one message a user sent.
type Prompt struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// UserAnalytics groups every record of one chat. Count always equals len(Prompts).
type UserAnalytics struct {
	ChatID   int64    `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Count    int      `json:"promptCount"`
	Prompts  []Prompt `json:"prompts"`
}

// Overview is the payload of the analytics page.
type Overview struct {
	TotalPrompts int             `json:"totalPrompts"`
	TotalUsers   int             `json:"totalUsers"`
	Users        []UserAnalytics `json:"users"`
}

// Aggregate groups records by chat id. Name and username come from the first
// record of each chat; prompts keep input order. Groups are sorted by count,
// descending, with ties left in first-encounter order.
func Aggregate(records []storage.Record) []UserAnalytics {
	index := make(map[int64]int)
	users := make([]UserAnalytics, 0)
	for _, rec := range records {
		i, ok := index[rec.ChatID]
		if !ok {
			username := rec.Username
			if username == "" {
				username = UnknownUsername
			}
			users = append(users, UserAnalytics{
				ChatID:   rec.ChatID,
				Name:     strings.TrimSpace(rec.FirstName + " " + rec.LastName),
				Username: username,
				Prompts:  []Prompt{},
			})
			i = len(users) - 1
			index[rec.ChatID] = i
		}
		users[i].Count++
		users[i].Prompts = append(users[i].Prompts, Prompt{Text: rec.Text, Timestamp: rec.Timestamp})
	}
	sort.SliceStable(users, func(a, b int) bool { return users[a].Count > users[b].Count })
	return users
}

// Summarize builds the overview for records.
func Summarize(records []storage.Record) Overview {
	users := Aggregate(records)
	return Overview{TotalPrompts: len(records), TotalUsers: len(users), Users: users}
}

// MostRecentFirst returns a reversed copy of records.
func MostRecentFirst(records []storage.Record) []storage.Record {
	out := make([]storage.Record, len(records))
	for i, rec := range records {
		out[len(records)-1-i] = rec
	}
	return out
}
