package pathing

import (
	"context"

	"voxelnav/logging"
)

const (
	// EventCalcStarted is emitted when a search for the active segment begins.
	EventCalcStarted logging.EventType = "pathing.calc_started"
	// EventCalcFinished is emitted when a search produces a usable segment.
	EventCalcFinished logging.EventType = "pathing.calc_finished"
	// EventCalcFailed is emitted when a search ends with no usable path.
	EventCalcFailed logging.EventType = "pathing.calc_failed"
	// EventSegmentTransition covers the executor handoff events: splice,
	// discard, continuation, completion and cancellation.
	EventSegmentTransition logging.EventType = "pathing.segment_transition"
	// EventExecutionFailed is emitted when the active executor cancels
	// itself mid-segment.
	EventExecutionFailed logging.EventType = "pathing.execution_failed"
)

// CalcPayload describes a search start or outcome.
type CalcPayload struct {
	Goal    string `json:"goal"`
	StartX  int    `json:"startX"`
	StartY  int    `json:"startY"`
	StartZ  int    `json:"startZ"`
	Status  string `json:"status,omitempty"`
	Length  int    `json:"length,omitempty"`
	Nodes   int    `json:"nodes,omitempty"`
	NextLeg bool   `json:"nextLeg,omitempty"`
}

// TransitionPayload names the lifecycle transition the navigator took.
type TransitionPayload struct {
	Transition string `json:"transition"`
}

// Calc publishes a search lifecycle event. The trace groups all events of
// one goal pursuit.
func Calc(ctx context.Context, pub logging.Publisher, typ logging.EventType, tick uint64, actor logging.EntityRef, trace string, payload CalcPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityInfo
	if typ == EventCalcFailed {
		severity = logging.SeverityWarn
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategorySearch,
		Payload:  payload,
		Extra:    extra,
		TraceID:  trace,
	})
}

// Transition publishes a navigator lifecycle transition.
func Transition(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, trace string, payload TransitionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSegmentTransition,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPathing,
		Payload:  payload,
		Extra:    extra,
		TraceID:  trace,
	})
}

// ExecutionFailedPayload captures why the executor abandoned its segment.
type ExecutionFailedPayload struct {
	Cursor int    `json:"cursor"`
	Reason string `json:"reason,omitempty"`
}

// ExecutionFailed publishes a mid-segment executor failure.
func ExecutionFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, trace string, payload ExecutionFailedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventExecutionFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryPathing,
		Payload:  payload,
		Extra:    extra,
		TraceID:  trace,
	})
}
