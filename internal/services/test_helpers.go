package services

import (
	"io"
	"log/slog"
	"time"

	"github.com/filecoin-project/go-clock"
)

// testEpoch is the starting instant for mock clocks in tests
var testEpoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// newTestLogger returns a logger that discards output
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClock returns a mock clock set to testEpoch
func newTestClock() *clock.Mock {
	mock := clock.NewMock()
	mock.Set(testEpoch)
	return mock
}
