package service

import "sync"

// deviceLocks serializes press handling per device within this process.
// Duplicate concurrent presses of the same physical button would otherwise
// race on the status transition; the database remains the arbiter across
// instances.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[uint]*sync.Mutex)}
}

// lock acquires the mutex for one device id and returns its unlock func
func (d *deviceLocks) lock(deviceID uint) func() {
	d.mu.Lock()
	m, ok := d.locks[deviceID]
	if !ok {
		m = &sync.Mutex{}
		d.locks[deviceID] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}
