package main

import (
	"fmt"
	"io"

	"luabundle/internal/buildpipeline"
	"luabundle/internal/observ"
)

// printStageTimings prints every recorded stage in pipeline order.
func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	timer := observ.NewTimer()
	for _, stage := range buildpipeline.Stages {
		if timings.Has(stage) {
			timer.Record(string(stage), timings.Duration(stage), "")
		}
	}
	_, _ = fmt.Fprint(out, timer.Summary())
}
