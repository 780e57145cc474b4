package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Action is a recorded operator action
type Action string

const (
	ActionLogin       Action = "login"
	ActionLoginFailed Action = "login_failed"
	ActionLogout      Action = "logout"
	ActionExport      Action = "export"
	ActionReload      Action = "reload"
)

// Activity is one entry of the dashboard's audit log
type Activity struct {
	BaseModel
	Visitor  string `json:"visitor" gorm:"type:varchar(26);index"`
	Username string `json:"username" gorm:"index"`
	Action   Action `json:"action" gorm:"not null"`
	Campaign string `json:"campaign"`
	Detail   string `json:"detail" gorm:"type:text"`
	Success  bool   `json:"success" gorm:"not null;default:false"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Activity{})
}
