// Package journal keeps a local, append-only record of review events.
//
// Core types:
//   - Entry: one recorded event with its sequence number
//   - FileStore: JSON Lines storage under the state directory
//   - Filter: selects entries for List
//   - Notifier: a notify.Notifier that records decisions and audits
//
// Example usage:
//
//	store, err := journal.NewFileStore(journal.StoreConfig{BaseDir: stateDir})
//	notifier := notify.NewFanout(nil, notify.NewLogNotifier(nil), journal.NewNotifier(store))
//	entries, err := store.List(journal.Filter{ItemID: id, Limit: 20})
package journal
