package voxelnav

import (
	"context"
	"fmt"

	"voxelnav/internal/pathing"
	pathlog "voxelnav/logging/pathing"
)

// PathEvent is a navigator lifecycle notification. Events are queued during
// tick processing and from the search goroutine, then drained and dispatched
// at the start of the next tick, so subscribers always observe them on the
// tick goroutine.
type PathEvent string

const (
	EventCalcStarted                      PathEvent = "CALC_STARTED"
	EventCalcFinishedNowExecuting         PathEvent = "CALC_FINISHED_NOW_EXECUTING"
	EventCalcFailed                       PathEvent = "CALC_FAILED"
	EventNextSegmentCalcStarted           PathEvent = "NEXT_SEGMENT_CALC_STARTED"
	EventNextSegmentCalcFinished          PathEvent = "NEXT_SEGMENT_CALC_FINISHED"
	EventNextCalcFailed                   PathEvent = "NEXT_CALC_FAILED"
	EventSplicingOntoNextEarly            PathEvent = "SPLICING_ONTO_NEXT_EARLY"
	EventDiscardNext                      PathEvent = "DISCARD_NEXT"
	EventContinuingOntoPlannedNext        PathEvent = "CONTINUING_ONTO_PLANNED_NEXT"
	EventAtGoal                           PathEvent = "AT_GOAL"
	EventCanceled                         PathEvent = "CANCELED"
	EventPathFinishedNextStillCalculating PathEvent = "PATH_FINISHED_NEXT_STILL_CALCULATING"
)

// EventListener receives drained lifecycle events, one at a time, on the
// tick goroutine. Listeners must not call back into the navigator.
type EventListener func(PathEvent)

// queueEvent enqueues without blocking. The queue is bounded; when a
// subscriber stalls long enough to fill it, newer events are dropped and
// counted rather than stalling the tick or the search goroutine.
func (n *Navigator) queueEvent(event PathEvent) {
	select {
	case n.events <- event:
	default:
		n.metrics.Add("navigator_events_dropped", 1)
	}
}

// dispatchEvents drains the queue, forwards to listeners, and mirrors each
// event onto the logging pipeline.
func (n *Navigator) dispatchEvents() {
	for {
		select {
		case event := <-n.events:
			for _, listener := range n.listeners {
				if listener != nil {
					listener(event)
				}
			}
			n.logEvent(event)
		default:
			return
		}
	}
}

func (n *Navigator) logEvent(event PathEvent) {
	if n.publisher == nil {
		return
	}
	switch event {
	case EventCalcStarted, EventCalcFinishedNowExecuting, EventCalcFailed,
		EventNextSegmentCalcStarted, EventNextSegmentCalcFinished, EventNextCalcFailed:
		n.logCalcEvent(event)
	default:
		pathlog.Transition(context.Background(), n.publisher, n.tick, n.actor, n.trace,
			pathlog.TransitionPayload{Transition: string(event)}, nil)
	}
}

func (n *Navigator) logCalcEvent(event PathEvent) {
	typ := pathlog.EventCalcStarted
	switch event {
	case EventCalcFinishedNowExecuting, EventNextSegmentCalcFinished:
		typ = pathlog.EventCalcFinished
	case EventCalcFailed, EventNextCalcFailed:
		typ = pathlog.EventCalcFailed
	}
	payload := pathlog.CalcPayload{
		NextLeg: event == EventNextSegmentCalcStarted ||
			event == EventNextSegmentCalcFinished ||
			event == EventNextCalcFailed,
	}
	if n.goal != nil {
		payload.Goal = goalString(n.goal)
	}
	start := n.expectedSegmentStart
	payload.StartX, payload.StartY, payload.StartZ = start.X, start.Y, start.Z
	pathlog.Calc(context.Background(), n.publisher, typ, n.tick, n.actor, n.trace, payload, nil)
}

// goalString renders a goal for log output without requiring every Goal
// implementation to be a Stringer.
func goalString(g pathing.Goal) string {
	if s, ok := g.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", g)
}
