package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AlertType string

const (
	AlertInfo     AlertType = "info"
	AlertWarning  AlertType = "warning"
	AlertError    AlertType = "error"
	AlertCritical AlertType = "critical"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertInfo, AlertWarning, AlertError, AlertCritical:
		return true
	}
	return false
}

// AlertRecord: запись журнала алертов. Для Store журнал только дописывается.
type AlertRecord struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"` // Какой concern поднял алерт
	Timestamp time.Time `json:"timestamp"`
}

// NewAlert создает алерт с новым ID и текущим временем.
func NewAlert(t AlertType, source, message string) AlertRecord {
	return AlertRecord{
		ID:        uuid.New().String(),
		Type:      t,
		Message:   message,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

func (a AlertRecord) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: alert without id", ErrInvalidPayload)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: alert %s has unknown type %q", ErrInvalidPayload, a.ID, a.Type)
	}
	if a.Message == "" {
		return fmt.Errorf("%w: alert %s has empty message", ErrInvalidPayload, a.ID)
	}
	return nil
}
