package pathing

// CalcContext is the read-only snapshot a single search or cost
// re-verification runs against. It pairs a world view with the settings in
// force when the calculation started, so a mid-flight settings change never
// splits one search across two configurations.
type CalcContext struct {
	World    World
	Settings Settings

	// ThreadSafe marks the world view as safe to query off the tick
	// goroutine. Launching a background search with a context that is not
	// thread safe is a programmer error.
	ThreadSafe bool
}

func NewCalcContext(w World, s Settings, threadSafe bool) *CalcContext {
	return &CalcContext{World: w, Settings: s, ThreadSafe: threadSafe}
}
