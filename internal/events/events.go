package events

import (
	"log/slog"
	"math/rand"
	"time"

	"samgame/internal/storage"
)

const logKey = "event_log"

// Record is a generated event, stamped and ready for the durable log.
type Record struct {
	Timestamp   time.Time         `json:"timestamp"`
	Type        Type              `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Context     map[string]string `json:"context,omitempty"`
}

// Generator produces dynamic events from the catalog tables and appends
// them to a durable event log.
type Generator struct {
	store   *storage.Store
	catalog Catalog

	// Overridable sources for deterministic tests.
	roll func() float64
	pick func(n int) int
	now  func() time.Time
}

// NewGenerator creates a generator backed by store.
func NewGenerator(store *storage.Store, catalog Catalog) *Generator {
	return &Generator{
		store:   store,
		catalog: catalog,
		roll:    rand.Float64,
		pick:    rand.Intn,
		now:     time.Now,
	}
}

// Generate draws an event type by weight, picks an entry from its table
// uniformly at random, stamps it and appends it to the event log. The
// context does not influence selection; it is only recorded alongside the
// event. Log failures are non-fatal: the record is returned regardless.
func (g *Generator) Generate(context map[string]string) Record {
	typ := g.selectType()
	table := g.catalog[typ]
	entry := table[g.pick(len(table))]

	record := Record{
		Timestamp:   g.now().UTC(),
		Type:        typ,
		Title:       entry.Title,
		Description: entry.Description,
		Context:     context,
	}

	if err := g.logEvent(record); err != nil {
		slog.Warn("failed to append event log", "type", typ, "error", err)
	}
	return record
}

// selectType draws the event category: exploration 50%, social 25%,
// weather 15%, combat 10%.
func (g *Generator) selectType() Type {
	roll := g.roll()
	switch {
	case roll < 0.5:
		return TypeExploration
	case roll < 0.75:
		return TypeSocial
	case roll < 0.9:
		return TypeWeather
	default:
		return TypeCombat
	}
}

func (g *Generator) logEvent(record Record) error {
	var doc struct {
		Events []Record `json:"events"`
	}
	if err := g.store.ReadJSON(logKey, &doc); err != nil {
		return err
	}
	doc.Events = append(doc.Events, record)
	return g.store.WriteJSON(logKey, doc)
}
