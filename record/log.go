// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"log"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetDebug enables or disables statement debug logging. Disabled by default.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

func debugf(format string, v ...any) {
	if debugEnabled.Load() {
		log.Printf(format, v...)
	}
}
