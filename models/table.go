package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

type Table struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	TableNumber int         `gorm:"not null;uniqueIndex" json:"table_number"`
	Capacity    int         `gorm:"not null" json:"capacity"`
	Status      TableStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	// MergedWith is only set on the primary of a merge group.
	MergedWith IDSet `gorm:"type:text" json:"merged_with"`
	// LinkedTo points a merge member at its primary.
	LinkedTo       *uint     `json:"linked_to,omitempty"`
	CurrentOrderID *uint     `gorm:"index" json:"current_order_id,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (t Table) EntityID() uint { return t.ID }

// IsMerged reports whether t is the primary of a merge group.
func (t Table) IsMerged() bool { return len(t.MergedWith) > 0 }

// IsLinked reports whether t is a non-primary member of a merge group.
func (t Table) IsLinked() bool { return t.LinkedTo != nil }

// IDSet is a set of record ids stored as a JSON array.
type IDSet []uint

// NewIDSet returns the distinct ids in ascending order.
func NewIDSet(ids ...uint) IDSet {
	seen := make(map[uint]struct{}, len(ids))
	out := make(IDSet, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s IDSet) Contains(id uint) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func (s IDSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uint(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *IDSet) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("IDSet: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		*s = nil
		return nil
	}
	*s = ids
	return nil
}
