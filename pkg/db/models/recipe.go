package models

import "time"

// Recipe is the base recipe row. Requirement rows and favorite metadata live
// in their own tables and are joined in by the recipe repository.
type Recipe struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string     `gorm:"column:name;not null"`
	Instructions string     `gorm:"column:instructions;not null"`
	LastCookedAt *time.Time `gorm:"column:last_cooked_at"`
}
