package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"luabundle/internal/buildpipeline"
	"luabundle/internal/ui"
)

type buildOutcome struct {
	result buildpipeline.BuildResult
	err    error
}

// runBuildWithUI runs the build in a goroutine and shows its progress events
// until the event channel is closed.
func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	if req == nil {
		return buildpipeline.BuildResult{}, fmt.Errorf("missing build request")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events, Done: ctx.Done()}
		// логгер пишет в stderr поверх TUI, поэтому во время прогресса он молчит
		reqCopy.Logger = nil
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// UI мог выйти раньше (ctrl+c): отменяем сборку, sink перестаёт слать события
	cancel()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
