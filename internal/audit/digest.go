// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// digestLen is the number of hex characters kept from the HMAC.
const digestLen = 16

// UsernameDigest returns a keyed, truncated HMAC-SHA256 of an attempted
// username. It lets operators correlate repeated failed attempts without
// storing text that may be a mistyped password.
func UsernameDigest(key []byte, username string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(username))
	return hex.EncodeToString(mac.Sum(nil))[:digestLen]
}
