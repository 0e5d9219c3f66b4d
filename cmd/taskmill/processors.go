package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mhutter/taskmill/internal/engine"
)

// Built-in probe task types. Real analysis processors are registered by the
// embedding platform; these two exist so operators can exercise the full
// claim/process/finalize path end to end.
const (
	taskTypeNoop  = "noop"
	taskTypeSleep = "sleep"
)

// sleepPayload is the payload of a "sleep" task.
type sleepPayload struct {
	Duration string `json:"duration"`
}

func registerBuiltinProcessors(registry *engine.Registry) {
	registry.Register(taskTypeNoop, engine.ProcessorFunc(processNoop))
	registry.Register(taskTypeSleep, engine.ProcessorFunc(processSleep))
}

func processNoop(_ context.Context, _ *engine.Task) (*engine.TaskResult, error) {
	return &engine.TaskResult{Summary: "noop"}, nil
}

func processSleep(ctx context.Context, task *engine.Task) (*engine.TaskResult, error) {
	var payload sleepPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return nil, engine.NewUserFacingError("sleep payload must be JSON with a duration field", err)
	}

	d, err := time.ParseDuration(payload.Duration)
	if err != nil {
		return nil, engine.NewUserFacingError(
			fmt.Sprintf("invalid sleep duration %q", payload.Duration), err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(d):
	}

	return &engine.TaskResult{Summary: fmt.Sprintf("slept %s", d)}, nil
}
