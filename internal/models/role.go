package models

import "strings"

type Role string

const (
	RoleConsultant Role = "consultant"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// NormalizeRole приводит строку роли к закрытому перечислению.
// Регистр и пробелы по краям игнорируются.
func NormalizeRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleConsultant:
		return RoleConsultant, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", Validationf("unknown role %q", s)
}

// IsManagerial - менеджер или администратор
func (r Role) IsManagerial() bool {
	return r == RoleManager || r == RoleAdmin
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Actor - пользователь, от имени которого выполняется операция
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System используется планировщиком для автоматических напоминаний
var System = Actor{ID: "system", Role: RoleAdmin}
