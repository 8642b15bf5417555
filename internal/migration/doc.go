// Package migration provides a reversible, step-based schema migration engine
// for embedded SQL databases.
//
// Steps are registered against integer versions and carry an up and a down
// callback. A run reads the current version from an append-only history
// table, then walks the registered steps towards the target version:
//
//   - ascending through (current, target] when upgrading
//   - descending through (target, current] when downgrading
//
// Every statement a step executes through its Helper is written to the
// history table. Upgrades stamp the step's version and downgrades stamp the
// version below it, so the most recent history row always names the schema
// version actually in place. A failed step stops the run; the history keeps
// exactly what was applied and the next run resumes from there.
//
// A database with no history at all is never migrated: it is assumed to have
// been created at the current schema. Use Baseline to start recording.
//
// Example usage:
//
//	m, err := migration.New(migration.Config{Version: 3})
//	if err != nil {
//		return err
//	}
//	m.AddStep(2, migration.ChangeStep(func(ctx context.Context, h *migration.Helper) error {
//		return h.RenameTable(ctx, "users", "members")
//	}))
//	if err := m.Start(ctx, db, nil); err != nil {
//		return err
//	}
package migration
