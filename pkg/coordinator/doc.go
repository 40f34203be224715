// Package coordinator provides the singleton lifecycle coordinator: an
// explicit context object that owns at most one manager instance and drives
// its asynchronous initialization and shutdown.
//
// # Basic Usage
//
//	coord := coordinator.New(coordinator.WithLogger(logger))
//	defer coord.Close(context.Background())
//
//	if err := coord.Configure(cfg); err != nil {
//	    return err
//	}
//	if _, err := coord.Initialize().Wait(ctx); err != nil {
//	    return err
//	}
//
//	err := coord.Do(ctx, func(ctx context.Context) error {
//	    _, err := coord.Bind(ctx, "main", resource.NewSelector().RequireClass("back"), preview)
//	    return err
//	})
//
// # Generations
//
// Configure is accepted once per shutdown cycle. Initialize and Shutdown are
// idempotent and return futures. A new initialization always waits for the
// previous shutdown to complete, and a shutdown waits for the in-flight
// initialization it supersedes, so generations never overlap.
//
// # Control loop
//
// Binding, unbinding and queries run on a single control loop and take the
// context handed out by [Coordinator.Do]. Other contexts are rejected with
// [ErrWrongThread]. Before initialization completes they fail with
// [ErrNotInitialized].
package coordinator
