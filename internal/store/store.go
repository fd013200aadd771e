package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// schemaVersion меняется при несовместимом изменении формата снапшота.
const schemaVersion = 1

// ErrNoSnapshot: в хранилище еще ничего не сохранено.
var ErrNoSnapshot = errors.New("no persisted snapshot")

// Persister: локальное долговременное хранилище ключ-значение.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// persisted: сохраняемое подмножество State (без Connection).
type persisted struct {
	Schema   int            `json:"schema"`
	Revision uint64         `json:"revision"`
	System   SystemSection  `json:"system"`
	Agents   AgentsSection  `json:"agents"`
	Metrics  MetricsSection `json:"metrics"`
	Health   HealthSection  `json:"health"`
	Alerts   AlertsSection  `json:"alerts"`
	Session  SessionSection `json:"session"`
}

// Store: единственный владелец состояния. Меняется только через действия;
// каждое действие атомарно, сохраняется и рассылается подписчикам вне блокировки.
type Store struct {
	mu    sync.RWMutex
	state State

	cfg       *infra.Config
	persister Persister
	logger    *zap.Logger
	now       func() time.Time

	persistMu      sync.Mutex
	savedRevision  uint64
	persistFailure prometheus.Counter

	lmu       sync.Mutex
	listeners map[uint64]func(State)
	nextID    uint64
	alertSink func(domain.AlertRecord)
}

// New создает Store с дефолтами из конфига. persister может быть nil.
func New(cfg *infra.Config, persister Persister, logger *zap.Logger) *Store {
	s := &Store{
		cfg:       cfg,
		persister: persister,
		logger:    logger.Named("store"),
		now:       func() time.Time { return time.Now().UTC() },
		listeners: make(map[uint64]func(State)),
	}
	if !cfg.Feature(infra.FeaturePersistence) {
		s.persister = nil
	}
	s.state = s.defaults()
	return s
}

func (s *Store) defaults() State {
	return State{
		System: SystemSection{
			SystemStatus: domain.SystemStatus{
				Status:      domain.SystemInitializing,
				Version:     s.cfg.App.Version,
				Environment: s.cfg.App.Environment,
			},
			Source: SourceDefault,
		},
		Agents:  AgentsSection{Items: []domain.AgentRecord{}, Source: SourceDefault},
		Metrics: MetricsSection{Source: SourceDefault},
		Health:  HealthSection{SystemHealthSnapshot: domain.SystemHealthSnapshot{Alerts: []domain.AlertRecord{}}, Source: SourceDefault},
		Alerts:  AlertsSection{Items: []domain.AlertRecord{}},
	}
}

// SetPersistFailureCounter подключает счетчик неудачных записей снапшота.
func (s *Store) SetPersistFailureCounter(c prometheus.Counter) {
	s.persistFailure = c
}

// SetAlertSink: получатель каждого нового алерта (журнал).
func (s *Store) SetAlertSink(fn func(domain.AlertRecord)) {
	s.lmu.Lock()
	s.alertSink = fn
	s.lmu.Unlock()
}

// Subscribe регистрирует наблюдателя; возвращает функцию отписки.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// apply: единственный путь изменения состояния.
func (s *Store) apply(mutate func(st *State, now time.Time)) {
	s.applyIf(func(st *State, now time.Time) bool {
		mutate(st, now)
		return true
	})
}

// applyIf: действие, которое может решить ничего не менять. Тогда ревизия
// не растет, а снапшот не сохраняется и не рассылается.
func (s *Store) applyIf(mutate func(st *State, now time.Time) bool) bool {
	s.mu.Lock()
	if !mutate(&s.state, s.now()) {
		s.mu.Unlock()
		return false
	}
	s.state.Revision++
	snap := s.state.clone()
	s.mu.Unlock()

	s.persist(snap)

	s.lmu.Lock()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.Unlock()
	for _, l := range listeners {
		l(snap)
	}
	return true
}

// persist пишет снапшот. Запись последовательная; более старая ревизия не перетирает новую.
func (s *Store) persist(snap State) {
	if s.persister == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if snap.Revision <= s.savedRevision {
		return
	}
	raw, err := json.Marshal(persisted{
		Schema:   schemaVersion,
		Revision: snap.Revision,
		System:   snap.System,
		Agents:   snap.Agents,
		Metrics:  snap.Metrics,
		Health:   snap.Health,
		Alerts:   snap.Alerts,
		Session:  snap.Session,
	})
	if err == nil {
		err = s.persister.Save(context.Background(), s.cfg.Storage.Key, raw)
	}
	if err != nil {
		if s.persistFailure != nil {
			s.persistFailure.Inc()
		}
		s.logger.Warn("failed to persist state snapshot", zap.Uint64("revision", snap.Revision), zap.Error(err))
		return
	}
	s.savedRevision = snap.Revision
}

// InitializeFromStorage восстанавливает сохраненные секции. Вызывается один раз до старта хуков.
// Ошибка чтения не фатальна: Store остается на дефолтах.
func (s *Store) InitializeFromStorage(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	raw, err := s.persister.Load(ctx, s.cfg.Storage.Key)
	if errors.Is(err, ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to read persisted state, starting from defaults", zap.Error(err))
		return fmt.Errorf("load snapshot: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.Warn("corrupt persisted state, starting from defaults", zap.Error(err))
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if p.Schema != schemaVersion {
		s.logger.Warn("persisted state schema mismatch, ignoring",
			zap.Int("got", p.Schema), zap.Int("want", schemaVersion))
		return nil
	}

	s.mu.Lock()
	conn := s.state.Connection
	s.state = State{
		System:     p.System,
		Agents:     p.Agents,
		Metrics:    p.Metrics,
		Health:     p.Health,
		Alerts:     p.Alerts,
		Session:    p.Session,
		Connection: conn,
		Revision:   p.Revision,
	}
	if s.state.Agents.Items == nil {
		s.state.Agents.Items = []domain.AgentRecord{}
	}
	if s.state.Alerts.Items == nil {
		s.state.Alerts.Items = []domain.AlertRecord{}
	}
	s.mu.Unlock()

	s.persistMu.Lock()
	s.savedRevision = p.Revision
	s.persistMu.Unlock()

	s.logger.Info("state restored from storage", zap.Uint64("revision", p.Revision))
	return nil
}

// --- Actions ---

func (s *Store) UpdateSystemStatus(patch SystemPatch) {
	s.apply(func(st *State, now time.Time) {
		patch.applyTo(&st.System)
		st.System.LastUpdated = now
	})
}

// UpdateAgents заменяет список целиком.
func (s *Store) UpdateAgents(list []domain.AgentRecord, src Source) {
	items := domain.CloneAgents(list)
	s.apply(func(st *State, now time.Time) {
		st.Agents = AgentsSection{Items: items, Source: src, LastUpdated: now}
	})
}

func (s *Store) UpdateMetrics(patch MetricsPatch) {
	s.apply(func(st *State, now time.Time) {
		patch.applyTo(&st.Metrics)
		st.Metrics.LastUpdated = now
	})
}

func (s *Store) UpdateHealth(h domain.SystemHealthSnapshot, src Source) {
	if h.Alerts == nil {
		h.Alerts = []domain.AlertRecord{}
	} else {
		h.Alerts = append([]domain.AlertRecord{}, h.Alerts...)
	}
	s.apply(func(st *State, now time.Time) {
		st.Health = HealthSection{SystemHealthSnapshot: h, Source: src, LastUpdated: now}
	})
}

// AddAlert дописывает алерт; при переполнении вытесняются самые старые.
func (s *Store) AddAlert(a domain.AlertRecord) {
	s.addAlert(a, false)
}

// AddAlertIfAbsent дописывает алерт, только если алерта с таким ID еще нет.
// Проверка и запись идут под одной блокировкой.
func (s *Store) AddAlertIfAbsent(a domain.AlertRecord) bool {
	return s.addAlert(a, true)
}

func (s *Store) addAlert(a domain.AlertRecord, unique bool) bool {
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	limit := s.cfg.Thresholds.MaxLogEntries
	added := s.applyIf(func(st *State, now time.Time) bool {
		if unique && containsAlert(st.Alerts.Items, a.ID) {
			return false
		}
		items := append(st.Alerts.Items, a)
		if limit > 0 && len(items) > limit {
			items = append([]domain.AlertRecord{}, items[len(items)-limit:]...)
		}
		st.Alerts.Items = items
		st.Alerts.LastUpdated = now
		return true
	})
	if !added {
		return false
	}

	s.lmu.Lock()
	sink := s.alertSink
	s.lmu.Unlock()
	if sink != nil {
		sink(a)
	}
	return true
}

func (s *Store) ClearAlerts() {
	s.apply(func(st *State, now time.Time) {
		st.Alerts = AlertsSection{Items: []domain.AlertRecord{}, LastUpdated: now}
	})
}

func (s *Store) SetDatabaseConnection(connected bool, err error) {
	s.apply(func(st *State, now time.Time) {
		st.Connection.Database = connected
		st.Connection.DatabaseError = ""
		if !connected && err != nil {
			st.Connection.DatabaseError = err.Error()
		}
		st.Connection.LastUpdated = now
	})
}

func (s *Store) SetRealtimeConnection(connected bool) {
	s.apply(func(st *State, now time.Time) {
		st.Connection.Realtime = connected
		st.Connection.LastUpdated = now
	})
}

func (s *Store) StartSession(sess domain.SessionState) {
	s.apply(func(st *State, now time.Time) {
		if sess.LastActivity.IsZero() {
			sess.LastActivity = now
		}
		st.Session = SessionSection{Session: &sess, LastUpdated: now}
	})
}

// TouchSession отмечает активность; без сессии ничего не делает и не рассылает.
func (s *Store) TouchSession() {
	s.applyIf(func(st *State, now time.Time) bool {
		if st.Session.Session == nil {
			return false
		}
		sess := *st.Session.Session
		sess.LastActivity = now
		st.Session = SessionSection{Session: &sess, LastUpdated: now}
		return true
	})
}

func (s *Store) ClearSession() {
	s.apply(func(st *State, now time.Time) {
		st.Session = SessionSection{LastUpdated: now}
	})
}

// Reset возвращает все секции к дефолтам конфига. Connection не секция данных,
// а наблюдаемое состояние транспорта: оно переживает сброс.
func (s *Store) Reset() {
	s.apply(func(st *State, _ time.Time) {
		rev, conn := st.Revision, st.Connection
		*st = s.defaults()
		st.Revision = rev
		st.Connection = conn
	})
}
