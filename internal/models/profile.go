package models

import "time"

// Profile - учетная запись из справочника сотрудников
type Profile struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Role           Role      `gorm:"type:varchar(20);not null;default:'consultant'" json:"role"`
	ClientID       *string   `gorm:"type:varchar(36);index" json:"client_id"`
	TelegramChatID int64     `gorm:"index" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) IsConsultant() bool {
	role, err := NormalizeRole(string(p.Role))
	return err == nil && role == RoleConsultant
}

func (p *Profile) Actor() Actor {
	role, _ := NormalizeRole(string(p.Role))
	return Actor{ID: p.ID, Role: role}
}

type Client struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}
