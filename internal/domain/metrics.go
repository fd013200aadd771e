package domain

import (
	"fmt"
	"time"
)

// SystemMetricsSnapshot: загрузка ресурсов в процентах.
// Заменяется целиком на каждом тике опроса.
type SystemMetricsSnapshot struct {
	CPU       float64   `json:"cpu"`
	Memory    float64   `json:"memory"`
	Network   float64   `json:"network"`
	Disk      float64   `json:"disk"`
	Timestamp time.Time `json:"timestamp"`
}

func (m SystemMetricsSnapshot) Validate() error {
	for name, v := range map[string]float64{"cpu": m.CPU, "memory": m.Memory, "network": m.Network, "disk": m.Disk} {
		if !inPercentRange(v) {
			return fmt.Errorf("%w: %s=%.2f out of range", ErrInvalidPayload, name, v)
		}
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("%w: metrics snapshot without timestamp", ErrInvalidPayload)
	}
	return nil
}

// SystemHealthSnapshot: сводная оценка здоровья системы.
// Overall: оценка 0..100 (больше = лучше); CPU, Memory, Network и Disk: загрузка в процентах.
type SystemHealthSnapshot struct {
	Overall   float64       `json:"overall"`
	CPU       float64       `json:"cpu"`
	Memory    float64       `json:"memory"`
	Network   float64       `json:"network"`
	Disk      float64       `json:"disk"`
	Alerts    []AlertRecord `json:"alerts"`
	Timestamp time.Time     `json:"timestamp"`
}

func (h SystemHealthSnapshot) Validate() error {
	if !inPercentRange(h.Overall) {
		return fmt.Errorf("%w: overall health %.2f out of range", ErrInvalidPayload, h.Overall)
	}
	if err := (SystemMetricsSnapshot{CPU: h.CPU, Memory: h.Memory, Network: h.Network, Disk: h.Disk, Timestamp: h.Timestamp}).Validate(); err != nil {
		return err
	}
	for _, a := range h.Alerts {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OverallFromMetrics считает оценку здоровья как запас по самому загруженному ресурсу
// со штрафом за среднюю загрузку.
func OverallFromMetrics(cpu, memory, network, disk float64) float64 {
	peak := max(cpu, memory, network, disk)
	avg := (cpu + memory + network + disk) / 4
	score := 100 - (peak*0.6 + avg*0.4)
	if score < 0 {
		return 0
	}
	return score
}
