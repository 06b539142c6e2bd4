package services

import (
	"fmt"
	"runtime/debug"

	"github.com/dpup/prefab/errors"
	"go.uber.org/zap"
)

// recoverHole turns a panic while processing one hole into that hole's error
func recoverHole(logger *zap.Logger, result *Result) {
	if r := recover(); r != nil {
		err, _ := errors.ParseStack(debug.Stack())
		skipFrames := 3
		numFrames := 5
		logger.Error("Recovered from panic while processing hole",
			zap.Any("error", r), zap.Any("error.stack_trace", err.MinimalStack(skipFrames, numFrames)))
		result.Hole = nil
		result.Err = fmt.Errorf("hole %s: panic: %v", result.HoleID, r)
	}
}
