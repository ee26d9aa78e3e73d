package models

import "time"

// ChangeOperation represents the kind of mutation a change-log row records.
type ChangeOperation string

const (
	ChangeOperationInsert ChangeOperation = "INSERT"
	ChangeOperationUpdate ChangeOperation = "UPDATE"
	ChangeOperationDelete ChangeOperation = "DELETE"
)

// ChangeRecord is a row in the relational change log. The PostgreSQL
// backend has no native push channel, so every mutation appends one of
// these rows inside the same transaction; feed subscribers poll the log by
// ascending ID and replay the payloads as change events.
//
// Payload stores the full entity as JSON for insert and update operations
// so subscribers never have to read the main tables, mirroring how the
// SurrealDB live feed delivers whole records.
type ChangeRecord struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string          `gorm:"not null;index:idx_change_entity" json:"entity_type"`
	EntityID   string          `gorm:"not null;index:idx_change_entity" json:"entity_id"`
	Operation  ChangeOperation `gorm:"not null" json:"operation"`
	Payload    []byte          `gorm:"type:jsonb" json:"payload,omitempty"`
	ChangedAt  time.Time       `gorm:"not null;index" json:"changed_at"`
}

// TableName returns the table name for the change log model
func (ChangeRecord) TableName() string {
	return "change_log"
}
