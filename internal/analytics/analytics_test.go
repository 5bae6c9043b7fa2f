package analytics

import (
	"strings"
	"testing"
	"time"

	"teleimage/internal/storage"
)

func rec(chatID int64, text string, ts time.Time) storage.Record {
	return storage.Record{ChatID: chatID, Text: text, Timestamp: ts}
}

func TestAggregate_GroupsInOrderAndKeepsFirstNames(t *testing.T) {
	ts := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	a := storage.Record{ChatID: 1, Username: "alice", FirstName: "Alice", LastName: "A", Text: "first", Timestamp: ts}
	b := storage.Record{ChatID: 2, Text: "other", Timestamp: ts.Add(time.Minute)}
	c := storage.Record{ChatID: 1, Username: "renamed", FirstName: "Changed", Text: "second", Timestamp: ts.Add(2 * time.Minute)}

	got := Aggregate([]storage.Record{a, b, c})
	if len(got) != 2 {
		t.Fatalf("want 2 groups, got %d", len(got))
	}
	u := got[0]
	if u.ChatID != 1 || u.Count != 2 || len(u.Prompts) != 2 {
		t.Fatalf("unexpected first group: %+v", u)
	}
	if u.Prompts[0].Text != "first" || u.Prompts[1].Text != "second" {
		t.Fatalf("prompt order lost: %+v", u.Prompts)
	}
	if u.Name != "Alice A" || u.Username != "alice" {
		t.Fatalf("name/username not taken from first record: %q %q", u.Name, u.Username)
	}
	if got[1].Username != UnknownUsername || got[1].Name != "" {
		t.Fatalf("missing username not defaulted: %+v", got[1])
	}
}

func TestAggregate_SortsByCountThenEncounterOrder(t *testing.T) {
	ts := time.Now()
	var records []storage.Record
	add := func(chatID int64, n int) {
		for i := 0; i < n; i++ {
			records = append(records, rec(chatID, "p", ts))
		}
	}
	add(1, 3)
	add(2, 5)
	add(3, 5)

	got := Aggregate(records)
	order := []int64{got[0].ChatID, got[1].ChatID, got[2].ChatID}
	if order[0] != 2 || order[1] != 3 || order[2] != 1 {
		t.Fatalf("want [2 3 1], got %v", order)
	}
	for _, u := range got {
		if u.Count != len(u.Prompts) {
			t.Fatalf("count/prompts mismatch for %d", u.ChatID)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Fatalf("want empty, got %+v", got)
	}
	ov := Summarize(nil)
	if ov.TotalPrompts != 0 || ov.TotalUsers != 0 || ov.Users == nil {
		t.Fatalf("unexpected overview: %+v", ov)
	}
}

func TestSummarizeAndMostRecentFirst(t *testing.T) {
	ts := time.Now()
	records := []storage.Record{rec(1, "a", ts), rec(2, "b", ts), rec(1, "c", ts)}
	ov := Summarize(records)
	if ov.TotalPrompts != 3 || ov.TotalUsers != 2 {
		t.Fatalf("unexpected totals: %+v", ov)
	}
	rev := MostRecentFirst(records)
	if rev[0].Text != "c" || rev[2].Text != "a" || records[0].Text != "a" {
		t.Fatalf("reverse wrong or input mutated: %+v", rev)
	}
}

func TestAnalyzeDailyLogs(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	records := []storage.Record{
		{ChatID: 123, Username: "alice", Text: "cat", Timestamp: day.Add(2 * time.Hour)},
		{ChatID: 123, Username: "alice", Text: "dog", Timestamp: day.Add(4 * time.Hour)},
		{ChatID: 456, Text: "fox", Timestamp: day.Add(6 * time.Hour)},
		// next day, must be ignored
		{ChatID: 789, Text: "tomorrow", Timestamp: day.AddDate(0, 0, 1)},
		// previous day
		{ChatID: 789, Text: "yesterday", Timestamp: day.Add(-time.Second)},
	}

	stats := AnalyzeDailyLogs(records, day.Add(13*time.Hour))
	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalPrompts != 3 {
		t.Errorf("Expected 3 prompts, got %d", stats.TotalPrompts)
	}
	if stats.UniqueUsers != 2 {
		t.Errorf("Expected 2 unique users, got %d", stats.UniqueUsers)
	}
	if stats.Users[0].ChatID != 123 || stats.Users[0].Count != 2 {
		t.Errorf("Expected user 123 first with 2 prompts, got %+v", stats.Users[0])
	}
}

func TestGenerateReportSummary(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stats := AnalyzeDailyLogs([]storage.Record{
		{ChatID: 123, Username: "alice", FirstName: "Alice", Text: "cat", Timestamp: day},
		{ChatID: 456, Text: "fox", Timestamp: day},
	}, day)

	summary := stats.GenerateReportSummary()
	for _, want := range []string{"2024-01-15", "Images requested: 2", "Unique users: 2", "Alice (@alice) [123]", "N/A [456]"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q. Summary: %s", want, summary)
		}
	}

	empty := AnalyzeDailyLogs(nil, day).GenerateReportSummary()
	if !strings.Contains(empty, "No activity") {
		t.Errorf("empty report: %s", empty)
	}
}

func TestToJSON(t *testing.T) {
	stats := AnalyzeDailyLogs([]storage.Record{{ChatID: 1, Text: "test_prompt", Timestamp: time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC)}},
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	jsonStr, err := stats.ToJSON()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(jsonStr, "2024-01-15") || !strings.Contains(jsonStr, "test_prompt") {
		t.Errorf("Expected JSON to contain date and prompt, got: %s", jsonStr)
	}
}
