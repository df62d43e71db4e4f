// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/oops"
)

// Registry holds tiles by key. It is filled at startup and read-only
// afterwards.
type Registry struct {
	tiles map[string]Tile
}

// NewRegistry creates an empty tile registry.
func NewRegistry() *Registry {
	return &Registry{tiles: make(map[string]Tile)}
}

// Register adds a tile. Registering the same key twice is an error.
func (r *Registry) Register(t Tile) error {
	if _, exists := r.tiles[t.Key()]; exists {
		return oops.Code(CodeDuplicateTile).With("tile", t.Key()).Errorf("tile %q already registered", t.Key())
	}
	r.tiles[t.Key()] = t
	return nil
}

// Get returns the tile registered under key.
func (r *Registry) Get(key string) (Tile, bool) {
	t, ok := r.tiles[key]
	return t, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.tiles))
	for k := range r.tiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Column is one manifest column.
type Column struct {
	Name      string
	Label     string
	AdminOnly bool
	Tiles     []string
}

// Manifest lays tiles out in columns.
type Manifest struct {
	Columns []Column
}

// DefaultManifest returns the standard column layout. The admin column is
// populated only in internal mode.
func DefaultManifest(internalMode bool) Manifest {
	m := Manifest{Columns: []Column{
		{Name: "left", Label: "Signals", Tiles: []string{KeyForecastSummary}},
		{Name: "mid", Label: "Models", Tiles: []string{KeyROISimulator, KeyMarketSnapshot}},
		{Name: "right", Label: "Forecasts", Tiles: []string{KeyTemperatureTrend}},
		{Name: "summary", Label: "Summary", Tiles: []string{KeyPipelineSelfAudit}},
		{Name: "admin", Label: "Admin", AdminOnly: true},
	}}
	if internalMode {
		m.Columns[len(m.Columns)-1].Tiles = []string{KeyResourceMonitor}
	}
	return m
}

// ResolvedColumn is a manifest column with its tiles looked up.
type ResolvedColumn struct {
	Name      string
	Label     string
	AdminOnly bool
	Tiles     []Tile
}

// Layout is a resolved manifest.
type Layout struct {
	columns []ResolvedColumn
	logger  *slog.Logger
}

// Resolve looks up every tile the manifest names. Unknown keys and
// admin-only tiles in public columns are errors.
func (r *Registry) Resolve(m Manifest) (*Layout, error) {
	layout := &Layout{logger: slog.Default()}
	for _, col := range m.Columns {
		rc := ResolvedColumn{Name: col.Name, Label: col.Label, AdminOnly: col.AdminOnly}
		for _, key := range col.Tiles {
			t, ok := r.tiles[key]
			if !ok {
				return nil, oops.Code(CodeUnknownTile).
					With("tile", key).
					With("column", col.Name).
					Errorf("unknown tile %q in column %q", key, col.Name)
			}
			if t.Capability() == CapAdminOnly && !col.AdminOnly {
				return nil, oops.Code(CodeTileMisplaced).
					With("tile", key).
					With("column", col.Name).
					Errorf("admin-only tile %q placed in public column %q", key, col.Name)
			}
			rc.Tiles = append(rc.Tiles, t)
		}
		layout.columns = append(layout.columns, rc)
	}
	return layout, nil
}

// WithLogger returns a copy of the layout that logs render failures to
// logger.
func (l *Layout) WithLogger(logger *slog.Logger) *Layout {
	out := *l
	out.logger = logger
	return &out
}

// For returns the non-empty columns visible to the given role. Viewers
// never see admin-only columns.
func (l *Layout) For(isViewer bool) []ResolvedColumn {
	out := make([]ResolvedColumn, 0, len(l.columns))
	for _, c := range l.columns {
		if c.AdminOnly && isViewer {
			continue
		}
		if len(c.Tiles) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Panel is one rendered tile. Err is set instead of View when the tile
// failed.
type Panel struct {
	Key   string
	Title string
	View  View
	Err   string
}

// RenderedColumn is a column of rendered panels.
type RenderedColumn struct {
	Name   string
	Label  string
	Panels []Panel
}

// Render renders every tile visible to the role.
func (l *Layout) Render(ctx context.Context, isViewer bool, f Filters) []RenderedColumn {
	cols := l.For(isViewer)
	out := make([]RenderedColumn, 0, len(cols))
	for _, c := range cols {
		rc := RenderedColumn{Name: c.Name, Label: c.Label}
		for _, t := range c.Tiles {
			rc.Panels = append(rc.Panels, l.renderTile(ctx, t, f))
		}
		out = append(out, rc)
	}
	return out
}

func (l *Layout) renderTile(ctx context.Context, t Tile, f Filters) (p Panel) {
	p = Panel{Key: t.Key(), Title: t.Title()}
	defer func() {
		if r := recover(); r != nil {
			err := oops.Code(CodeRenderPanic).With("tile", t.Key()).Errorf("panic: %v", r)
			p.View = View{}
			p.Err = fmt.Sprintf("%s failed to render", t.Title())
			l.fail(ctx, t.Key(), err)
		}
	}()

	view, err := t.Render(ctx, f)
	if err != nil {
		p.Err = fmt.Sprintf("%s failed: %v", t.Title(), err)
		l.fail(ctx, t.Key(), err)
		return p
	}
	p.View = view
	return p
}

func (l *Layout) fail(ctx context.Context, key string, err error) {
	renderFailures.WithLabelValues(key).Inc()
	l.logger.WarnContext(ctx, "tile render failed", "tile", key, "error", err)
}
