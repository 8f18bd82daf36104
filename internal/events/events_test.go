package events

import (
	"testing"
	"time"

	"samgame/internal/storage"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewGenerator(storage.New(t.TempDir()), catalog)
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	for _, typ := range []Type{TypeExploration, TypeCombat, TypeSocial, TypeWeather} {
		if len(catalog[typ]) == 0 {
			t.Errorf("empty table for %s", typ)
		}
		for _, entry := range catalog[typ] {
			if entry.Title == "" || entry.Description == "" {
				t.Errorf("incomplete entry in %s: %+v", typ, entry)
			}
		}
	}
}

func TestSelectTypeThresholds(t *testing.T) {
	g := testGenerator(t)

	cases := []struct {
		roll float64
		want Type
	}{
		{0.0, TypeExploration},
		{0.49, TypeExploration},
		{0.5, TypeSocial},
		{0.74, TypeSocial},
		{0.75, TypeWeather},
		{0.89, TypeWeather},
		{0.9, TypeCombat},
		{0.99, TypeCombat},
	}
	for _, tc := range cases {
		g.roll = func() float64 { return tc.roll }
		if got := g.selectType(); got != tc.want {
			t.Errorf("roll %.2f: got %s, want %s", tc.roll, got, tc.want)
		}
	}
}

func TestGenerateStampsAndLogs(t *testing.T) {
	store := storage.New(t.TempDir())
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	g := NewGenerator(store, catalog)
	g.roll = func() float64 { return 0.95 } // combat
	g.pick = func(n int) int { return 0 }
	fixed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	record := g.Generate(map[string]string{"scene": "camp"})

	if record.Type != TypeCombat {
		t.Errorf("expected combat event, got %s", record.Type)
	}
	if record.Title != catalog[TypeCombat][0].Title {
		t.Errorf("expected first combat entry, got %q", record.Title)
	}
	if !record.Timestamp.Equal(fixed) {
		t.Errorf("expected fixed UTC timestamp, got %s", record.Timestamp)
	}

	var doc struct {
		Events []Record `json:"events"`
	}
	if err := store.ReadJSON("event_log", &doc); err != nil {
		t.Fatalf("read event log: %v", err)
	}
	if len(doc.Events) != 1 || doc.Events[0].Title != record.Title {
		t.Errorf("expected logged event, got %+v", doc.Events)
	}
}

func TestGenerateAppendsLog(t *testing.T) {
	store := storage.New(t.TempDir())
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	g := NewGenerator(store, catalog)

	for i := 0; i < 3; i++ {
		g.Generate(nil)
	}

	var doc struct {
		Events []Record `json:"events"`
	}
	if err := store.ReadJSON("event_log", &doc); err != nil {
		t.Fatalf("read event log: %v", err)
	}
	if len(doc.Events) != 3 {
		t.Errorf("expected 3 logged events, got %d", len(doc.Events))
	}
}
