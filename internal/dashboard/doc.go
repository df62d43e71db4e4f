// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package dashboard provides the tile renderers shown to signed-in users.
//
// Tiles are registered once at startup and placed into columns by a
// Manifest. Registry.Resolve checks the manifest up front, so an unknown
// tile or an admin-only tile in a public column stops startup instead of
// surfacing on a request. A Layout then renders the columns a given role
// may see; a tile that fails renders an inline error and the page carries
// on.
package dashboard
