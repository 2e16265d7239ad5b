// Package models holds the gorm persistence models. They are the
// anti-corruption layer between domain entities and the relational schema;
// identifiers are stored as canonical UUID strings so the same schema runs
// on MySQL and SQLite.
package models

import (
	"time"

	"gorm.io/datatypes"
)

type TenantModel struct {
	ID           string `gorm:"primaryKey;type:char(36)"`
	Name         string `gorm:"type:varchar(255);not null"`
	PlanID       string `gorm:"type:varchar(64);not null;default:hobby"`
	PlanMessages int64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (TenantModel) TableName() string { return "tenants" }

type PlanModel struct {
	ID                   string `gorm:"primaryKey;type:varchar(64)"`
	Name                 string `gorm:"type:varchar(128);not null"`
	MaxProjects          int64  `gorm:"not null;default:1"`
	MonthlyMessageCap    int64  `gorm:"not null;default:2000"`
	MonthlyUploadCharCap int64  `gorm:"not null;default:500000"`
	IsAnnualAvailable    bool   `gorm:"not null;default:true"`
}

func (PlanModel) TableName() string { return "plans" }

type SubscriptionModel struct {
	TenantID           string    `gorm:"primaryKey;type:char(36)"`
	PlanID             string    `gorm:"type:varchar(64);not null;index"`
	BillingCycle       string    `gorm:"type:varchar(16);not null;default:monthly"`
	CurrentPeriodStart time.Time `gorm:"type:date;not null"`
	CurrentPeriodEnd   time.Time `gorm:"type:date;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

// UsageDailyModel is one ledger row. The composite primary key makes
// "insert, on conflict add" atomic per (day, tenant, project).
type UsageDailyModel struct {
	UsageDate     time.Time `gorm:"primaryKey;type:date;index:idx_usage_tenant_date,priority:2"`
	TenantID      string    `gorm:"primaryKey;type:char(36);index:idx_usage_tenant_date,priority:1"`
	ProjectID     string    `gorm:"primaryKey;type:char(36)"`
	MessagesCount int64     `gorm:"not null;default:0"`
	TokensIn      int64     `gorm:"not null;default:0"`
	TokensOut     int64     `gorm:"not null;default:0"`
	CharsUploaded int64     `gorm:"not null;default:0"`
}

func (UsageDailyModel) TableName() string { return "usage_daily" }

type ProjectModel struct {
	ID            string  `gorm:"primaryKey;type:char(36)"`
	TenantID      string  `gorm:"type:char(36);not null;uniqueIndex:uq_project_tenant_name,priority:1"`
	Name          string  `gorm:"type:varchar(255);not null;uniqueIndex:uq_project_tenant_name,priority:2"`
	VectorStoreID *string `gorm:"type:varchar(128);uniqueIndex"`
	CreatedAt     time.Time
}

func (ProjectModel) TableName() string { return "projects" }

type MessageModel struct {
	ID             string         `gorm:"primaryKey;type:char(36)"`
	TenantID       string         `gorm:"type:char(36);not null;index"`
	ProjectID      string         `gorm:"type:char(36);not null;index:idx_messages_project_created,priority:1"`
	Role           string         `gorm:"type:varchar(16);not null"`
	Content        string         `gorm:"type:text;not null"`
	TokensIn       int64          `gorm:"not null;default:0"`
	TokensOut      int64          `gorm:"not null;default:0"`
	IdempotencyKey *string        `gorm:"type:varchar(255);index"`
	Citations      datatypes.JSON `gorm:"type:json"`
	CreatedAt      time.Time      `gorm:"index:idx_messages_project_created,priority:2"`
}

func (MessageModel) TableName() string { return "messages" }

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&PlanModel{},
		&TenantModel{},
		&SubscriptionModel{},
		&ProjectModel{},
		&UsageDailyModel{},
		&MessageModel{},
	}
}
