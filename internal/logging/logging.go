// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the leveled logger used for diagnostics. Progress
// output is written separately by each stage to the writer it is given.
package logging

import (
	"fmt"
	"io"

	log "github.com/cihub/seelog"
)

const format = "%Date(15:04:05) %LEV %Msg%n"

// New returns a synchronous logger writing to w. With debug set the minimum
// level is debug; otherwise info.
func New(w io.Writer, debug bool) (log.LoggerInterface, error) {
	var level log.LogLevel = log.InfoLvl
	if debug {
		level = log.DebugLvl
	}
	logger, err := log.LoggerFromWriterWithMinLevelAndFormat(w, level, format)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() log.LoggerInterface {
	return log.Disabled
}
