// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

// Error codes.
const (
	CodeUnknownTile    = "DASHBOARD_UNKNOWN_TILE"
	CodeDuplicateTile  = "DASHBOARD_DUPLICATE_TILE"
	CodeTileMisplaced  = "DASHBOARD_TILE_MISPLACED"
	CodeUnknownStation = "DASHBOARD_UNKNOWN_STATION"
	CodeStatusInvalid  = "DASHBOARD_STATUS_INVALID"
	CodeRenderPanic    = "DASHBOARD_RENDER_PANIC"
)
