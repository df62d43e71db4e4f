// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"context"
	"time"
)

// Capability says who may see a tile.
type Capability int

// Tile capabilities.
const (
	CapPublic Capability = iota
	CapAdminOnly
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CapPublic:
		return "public"
	case CapAdminOnly:
		return "admin_only"
	default:
		return "unknown"
	}
}

// Filters are the sidebar selections a tile renders for.
type Filters struct {
	Station string
	Date    time.Time
}

// Table is a rendered grid of cells.
type Table struct {
	Caption string
	Columns []string
	Rows    [][]string
}

// View is the output of one tile render.
type View struct {
	Tables []Table
	Notes  []string
}

// Tile renders one dashboard panel.
type Tile interface {
	Key() string
	Title() string
	Capability() Capability
	Render(ctx context.Context, f Filters) (View, error)
}
