// Package core contains the calendar-sync domain contracts, entities, and
// orchestration logic. Lower-level adapters must depend on this package;
// core must not depend on provider-specific or transport-specific adapters.
//
// The engine is invoked per unit of work and holds no in-process state
// across invocations: concurrent runs for the same integration/calendar pair
// converge through idempotent upserts and a last-step cursor write rather
// than locking.
package core
