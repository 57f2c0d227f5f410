package datastore

import "sync"

// Tables reported to write hooks.
const (
	TableEnvironment = "environment_data"
	TableMarket      = "market_data"
)

// WriteHook is called after rows were written to table.
type WriteHook func(table string)

// WriteNotifier is implemented by stores that report successful writes.
type WriteNotifier interface {
	AddWriteHook(hook WriteHook)
}

type writeHooks struct {
	mu    sync.RWMutex
	hooks []WriteHook
}

// AddWriteHook registers hook for every later write of readings or market
// data, whichever component performed it.
func (ds *DataStore) AddWriteHook(hook WriteHook) {
	if hook == nil {
		return
	}
	ds.writeHooks.mu.Lock()
	ds.writeHooks.hooks = append(ds.writeHooks.hooks, hook)
	ds.writeHooks.mu.Unlock()
}

func (ds *DataStore) notifyWrite(table string) {
	ds.writeHooks.mu.RLock()
	hooks := ds.writeHooks.hooks
	ds.writeHooks.mu.RUnlock()
	for _, h := range hooks {
		h(table)
	}
}
