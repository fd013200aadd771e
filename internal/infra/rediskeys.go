package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "awip"
)

// Типы событий realtime-канала (как их шлет backend)
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
	EventAll    = "*"
)

// Таблицы backend, на изменения которых можно подписаться
const (
	TableSystemState = "system_state"
	TableAgents      = "agents"
	TableMetrics     = "system_metrics"
	TableHealth      = "system_health"
	TableAlerts      = "alerts"
)

// RealtimeChannel Генератор имени канала Pub/Sub: таблица + тип события.
// EventAll даёт glob-паттерн для PSubscribe.
func RealtimeChannel(table, event string) string {
	return fmt.Sprintf("%s:realtime:%s:%s", RedisNamespace, table, event)
}

// TableFor сопоставляет concern и таблицу backend.
func TableFor(concern Concern) string {
	switch concern {
	case ConcernSystemStatus:
		return TableSystemState
	case ConcernAgents:
		return TableAgents
	case ConcernMetrics:
		return TableMetrics
	case ConcernHealth:
		return TableHealth
	case ConcernAlerts:
		return TableAlerts
	default:
		return string(concern)
	}
}
