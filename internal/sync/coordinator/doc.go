// Package coordinator provides the background scheduler that drives bucket
// reconciliation cycles.
//
// It sits on top of sync.Manager and a leader.Gate and runs two independent
// drivers:
//
//   - Leadership driver: after a short initial delay, registers this process
//     as a candidate for the role. Failed registrations are retried with
//     exponential backoff. Once registered, leadership is only re-checked,
//     never re-registered.
//   - Reconciliation driver: a fixed-delay loop. Each tick checks IsLeader;
//     followers return immediately. The leader runs one complete cycle and
//     the next tick is scheduled only after that cycle returned, so at most
//     one cycle is ever in flight.
//
// # Core Interface
//
//	type Coordinator interface {
//	    Start(ctx context.Context) error     // Run both drivers until stopped
//	    Stop() error                          // Suppress future ticks, release leadership
//	    LastCycle() *status.CycleStatus       // Thread-safe status access
//	}
//
// # Usage Example
//
//	gate, _ := leader.New(&cfg.Leader)
//	manager := sync.NewManager(sourceStore, bucketWriter, translate.NewSourceTranslator())
//	persistence := status.NewFileStatusPersistence(cfg.GetDataDir())
//
//	coord := coordinator.New(manager, gate, persistence, cfg)
//	go coord.Start(ctx)
//
//	// ... run ops server ...
//
//	coord.Stop()
//
// # Stopping
//
// Stop cancels the loop context. A cycle already in flight runs on a context
// detached from that cancellation and completes; only ticks that have not
// started yet are suppressed. Leadership is released once the loop exited.
//
// # Status Persistence
//
// The status of every cycle run as leader (phase, planned counts, failures,
// timings and the number of leadership acquisitions) is kept in memory for
// the ops API and saved through status.Persistence. Persistence errors are
// logged and never stop the loop.
package coordinator
