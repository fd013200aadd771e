package infra

import (
	"time"

	"github.com/spf13/viper"
)

// Значения схемы по умолчанию. Наружу не экспортируются:
// остальной код читает их только через *Config.
const (
	defaultAppName    = "AWIP Mission Control"
	defaultAppVersion = "1.0.0"
	defaultEnv        = "development"

	defaultSystemStatusInterval = 30 * time.Second
	defaultAgentsInterval       = 15 * time.Second
	defaultMetricsInterval      = 10 * time.Second
	defaultHealthInterval       = 20 * time.Second
	defaultAlertsInterval       = 15 * time.Second
	defaultJournalFlush         = 500 * time.Millisecond

	defaultAgentCount    = 20
	defaultMaxLogEntries = 100
	defaultRequestTO     = 10 * time.Second
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", defaultAppName)
	v.SetDefault("app.version", defaultAppVersion)
	v.SetDefault("app.environment", defaultEnv)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("stream.write_wait", 10*time.Second)
	v.SetDefault("stream.pong_wait", 60*time.Second)
	v.SetDefault("stream.ping_interval", 30*time.Second)

	v.SetDefault("backend.driver", "rest")
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.database_url", "")
	v.SetDefault("backend.max_conns", 10)
	v.SetDefault("backend.max_conn_lifetime", 5*time.Minute)
	v.SetDefault("backend.request_timeout", defaultRequestTO)
	v.SetDefault("backend.probe_timeout", 5*time.Second)
	v.SetDefault("backend.throttle_delay", time.Second)

	v.SetDefault("realtime.addr", "")
	v.SetDefault("realtime.password", "")
	v.SetDefault("realtime.db", 0)
	v.SetDefault("realtime.reconnect_delay", 5*time.Second)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("storage.path", "awip-mission-control.db")
	v.SetDefault("storage.key", "awip-ssot-store")

	v.SetDefault("intervals.system_status", defaultSystemStatusInterval)
	v.SetDefault("intervals.agents", defaultAgentsInterval)
	v.SetDefault("intervals.metrics", defaultMetricsInterval)
	v.SetDefault("intervals.health", defaultHealthInterval)
	v.SetDefault("intervals.alerts", defaultAlertsInterval)
	v.SetDefault("intervals.journal_flush", defaultJournalFlush)

	v.SetDefault("thresholds.agent_count", defaultAgentCount)
	v.SetDefault("thresholds.max_log_entries", defaultMaxLogEntries)
	v.SetDefault("thresholds.agent_row_limit", 50)
	v.SetDefault("thresholds.alert_row_limit", 25)
	v.SetDefault("thresholds.cpu_warning", 80.0)
	v.SetDefault("thresholds.memory_warning", 85.0)
	v.SetDefault("thresholds.disk_warning", 90.0)
	v.SetDefault("thresholds.health_degraded", 70.0)
	v.SetDefault("thresholds.journal_buffer", 1000)
	v.SetDefault("thresholds.journal_batch", 100)

	v.SetDefault("endpoints.system_state", "/rest/v1/system_state")
	v.SetDefault("endpoints.agents", "/rest/v1/agents")
	v.SetDefault("endpoints.metrics", "/rest/v1/system_metrics")
	v.SetDefault("endpoints.health", "/rest/v1/system_health")
	v.SetDefault("endpoints.alerts", "/rest/v1/alerts")
	v.SetDefault("endpoints.handoff", "/rest/v1/conversation_handoffs")
	v.SetDefault("endpoints.status_reports", "/rest/v1/status_reports")

	v.SetDefault("features", map[string]interface{}{
		FeatureRealtime:    true,
		FeaturePersistence: true,
		FeatureJournal:     true,
		FeatureLLMChat:     true,
	})

	v.SetDefault("reliability.cb_max_requests", 3)
	v.SetDefault("reliability.cb_interval", 5*time.Second)
	v.SetDefault("reliability.cb_timeout", 30*time.Second)
	v.SetDefault("reliability.cb_consecutive_failures", 5)
	v.SetDefault("reliability.rate_limit", 20.0)
	v.SetDefault("reliability.rate_burst", 10)
	// одна попытка, без бэкоффа
	v.SetDefault("reliability.retry_attempts", 1)

	v.SetDefault("auth.public_key_data", "")
	v.SetDefault("auth.private_key_data", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.operator_username", "operator")
	v.SetDefault("auth.operator_password_hash", "")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.session_touch_interval", time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.file_path", "")
	v.SetDefault("logger.output", "stdout")
}
