// Package shutdown provides graceful teardown coordination for the runtime.
//
// # Overview
//
// The shutdown package lets composed components tear down in a controlled
// order: stop accepting work first, drain what is in flight, then release
// backing resources. It handles OS signals (SIGTERM, SIGINT) and runs
// registered handlers phase by phase.
//
// # Usage
//
// Basic usage with signal handling:
//
//	coord := shutdown.NewCoordinator(shutdown.DefaultConfig())
//	coord.HandleSignals() // SIGTERM, SIGINT
//
//	// Register handlers with phases (lower = earlier)
//	coord.RegisterFuncWithPhase("dispatch", stopDispatch, 10)
//	coord.RegisterFuncWithPhase("supervisor", drainTasks, 20)
//	coord.RegisterFuncWithPhase("broker", closeBroker, 30)
//
//	<-coord.Done()
//
// Manual shutdown with timeout:
//
//	if err := coord.ShutdownWithTimeout(30 * time.Second); err != nil {
//	    log.Printf("shutdown incomplete: %v", err)
//	}
//
// # Phases
//
// Lower phase numbers shut down first; handlers sharing a phase run
// concurrently. Typical assignments:
//
//   - 10: intake (stop accepting new dispatches)
//   - 20: supervised work (cancel and drain)
//   - 30: backing resources (registry, broker)
//
// Handlers should respect context cancellation; the context passed to
// OnShutdown is cancelled when the overall timeout is reached.
package shutdown
