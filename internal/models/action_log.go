package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActionLog - запись журнала действий (изменения CRA, решения по отсутствиям, рассылки)
type ActionLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	ActorID   string            `gorm:"type:varchar(36);index" json:"actor_id"`
	ActorRole Role              `gorm:"type:varchar(20)" json:"actor_role"`
	Action    string            `gorm:"type:varchar(128);not null" json:"action"`
	Details   datatypes.JSONMap `json:"details"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

func (ActionLog) TableName() string {
	return "action_logs"
}

// Действия, которые попадают в журнал
const (
	ActionCRACreated     = "cra.created"
	ActionCRAUpdated     = "cra.updated"
	ActionCRATransition  = "cra.transition"
	ActionCRADeleted     = "cra.deleted"
	ActionAbsenceCreated = "absence.created"
	ActionAbsenceDecided = "absence.decided"
	ActionAbsenceDeleted = "absence.deleted"
	ActionRemindersSent  = "reminders.sent"
)
