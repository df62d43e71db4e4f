// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/opsdash/pkg/errutil"
)

type stubTile struct {
	key    string
	cap    Capability
	view   View
	err    error
	panics bool
}

func (s stubTile) Key() string            { return s.key }
func (s stubTile) Title() string          { return "Stub " + s.key }
func (s stubTile) Capability() Capability { return s.cap }

func (s stubTile) Render(context.Context, Filters) (View, error) {
	if s.panics {
		panic("boom")
	}
	return s.view, s.err
}

var testFilters = Filters{Station: "KDTW", Date: time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC)}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTile{key: "a"}))
	require.NoError(t, r.Register(stubTile{key: "b"}))

	err := r.Register(stubTile{key: "a"})
	errutil.AssertErrorCode(t, err, CodeDuplicateTile)
	errutil.AssertErrorContext(t, err, "tile", "a")

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	_, ok := r.Get("a")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTile{key: "pub"}))
	require.NoError(t, r.Register(stubTile{key: "adm", cap: CapAdminOnly}))

	tests := []struct {
		name     string
		manifest Manifest
		code     string
	}{
		{
			name: "valid",
			manifest: Manifest{Columns: []Column{
				{Name: "left", Tiles: []string{"pub"}},
				{Name: "admin", AdminOnly: true, Tiles: []string{"adm", "pub"}},
			}},
		},
		{
			name:     "unknown tile",
			manifest: Manifest{Columns: []Column{{Name: "left", Tiles: []string{"nope"}}}},
			code:     CodeUnknownTile,
		},
		{
			name:     "admin tile in public column",
			manifest: Manifest{Columns: []Column{{Name: "left", Tiles: []string{"adm"}}}},
			code:     CodeTileMisplaced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := r.Resolve(tt.manifest)
			if tt.code == "" {
				require.NoError(t, err)
				assert.NotNil(t, layout)
				return
			}
			assert.Nil(t, layout)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestDefaultManifest_ResolvesAgainstDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry(TileOptions{})

	for _, internal := range []bool{false, true} {
		_, err := reg.Resolve(DefaultManifest(internal))
		require.NoError(t, err, "internal=%v", internal)
	}
}

func columnNames(cols []ResolvedColumn) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

func TestLayout_For(t *testing.T) {
	reg := NewDefaultRegistry(TileOptions{})

	t.Run("internal mode admin sees admin column", func(t *testing.T) {
		layout, err := reg.Resolve(DefaultManifest(true))
		require.NoError(t, err)
		assert.Equal(t, []string{"left", "mid", "right", "summary", "admin"}, columnNames(layout.For(false)))
	})

	t.Run("internal mode viewer never sees admin column", func(t *testing.T) {
		layout, err := reg.Resolve(DefaultManifest(true))
		require.NoError(t, err)
		assert.Equal(t, []string{"left", "mid", "right", "summary"}, columnNames(layout.For(true)))
	})

	t.Run("public mode has no admin column", func(t *testing.T) {
		layout, err := reg.Resolve(DefaultManifest(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"left", "mid", "right", "summary"}, columnNames(layout.For(false)))
	})
}

func TestLayout_Render_FailuresStayInline(t *testing.T) {
	r := NewRegistry()
	good := View{Notes: []string{"ok"}}
	require.NoError(t, r.Register(stubTile{key: "good", view: good}))
	require.NoError(t, r.Register(stubTile{key: "bad", err: errors.New("source offline")}))
	require.NoError(t, r.Register(stubTile{key: "panicky", panics: true}))

	layout, err := r.Resolve(Manifest{Columns: []Column{
		{Name: "left", Tiles: []string{"bad", "good", "panicky"}},
	}})
	require.NoError(t, err)

	badBefore := testutil.ToFloat64(renderFailures.WithLabelValues("bad"))
	panicBefore := testutil.ToFloat64(renderFailures.WithLabelValues("panicky"))

	cols := layout.Render(context.Background(), false, testFilters)
	require.Len(t, cols, 1)
	panels := cols[0].Panels
	require.Len(t, panels, 3)

	assert.Equal(t, "bad", panels[0].Key)
	assert.Contains(t, panels[0].Err, "source offline")

	assert.Empty(t, panels[1].Err)
	assert.Equal(t, good, panels[1].View)

	assert.NotEmpty(t, panels[2].Err)
	assert.NotContains(t, panels[2].Err, "boom")

	assert.Equal(t, badBefore+1, testutil.ToFloat64(renderFailures.WithLabelValues("bad")))
	assert.Equal(t, panicBefore+1, testutil.ToFloat64(renderFailures.WithLabelValues("panicky")))
}

func TestCapability_String(t *testing.T) {
	assert.Equal(t, "public", CapPublic.String())
	assert.Equal(t, "admin_only", CapAdminOnly.String())
	assert.Equal(t, "unknown", Capability(9).String())
}
