package engine

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// Event: дельта из realtime-канала: таблица, тип изменения и запись.
type Event struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record"`
}

// parseEvent разбирает канал "awip:realtime:<table>:<event>" и тело сообщения.
func parseEvent(channel, payload string) (Event, bool) {
	parts := strings.Split(channel, ":")
	if len(parts) != 4 {
		return Event{}, false
	}
	ev := Event{Table: parts[2], Type: parts[3]}
	if payload != "" {
		if !json.Valid([]byte(payload)) {
			return Event{}, false
		}
		ev.Record = json.RawMessage(payload)
	}
	return ev, true
}

type Subscription interface {
	Unsubscribe()
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

// NoopSubscription возвращается, когда realtime-канал недоступен.
func NoopSubscription() Subscription { return noopSubscription{} }

type listenerSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe останавливает слушателя и ждет его выхода. Повторный вызов безопасен.
func (s *listenerSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// realtimeTracker сводит состояния всех слушателей в один флаг подключения.
type realtimeTracker struct {
	mu        sync.Mutex
	connected int
	notify    func(connected bool)
}

func (t *realtimeTracker) setNotify(fn func(connected bool)) {
	t.mu.Lock()
	t.notify = fn
	t.mu.Unlock()
}

// listener возвращает onState для одного слушателя. Повторы одного и того же
// состояния не считаются; наблюдатель узнает только о смене общего флага.
func (t *realtimeTracker) listener() func(connected bool) {
	var up bool
	return func(connected bool) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if connected == up {
			return
		}
		up = connected
		before := t.connected > 0
		if connected {
			t.connected++
		} else {
			t.connected--
		}
		if after := t.connected > 0; after != before && t.notify != nil {
			t.notify(after)
		}
	}
}
