package audit

import (
	"context"
	"sync"
)

// MemoryLog keeps records in memory, newest appended last.
type MemoryLog struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryLog creates an empty in-memory audit log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(ctx context.Context, record Record) error {
	l.mu.Lock()
	l.records = append(l.records, record)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLog) List(ctx context.Context, flagKey string, limit int) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, limit)
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := l.records[i]
		if flagKey != "" && r.FlagKey != flagKey {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *MemoryLog) Close() error {
	return nil
}
