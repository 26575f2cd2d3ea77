package models

import (
	"time"
)

// ReferralLink records that descendant sits `level` hops below ancestor in the
// referral tree. It is a derived index over the referrer pointer chain, kept
// for fast per-level lookups; the unique index gives inserts set-union
// semantics so re-linking the same pair is a no-op.
type ReferralLink struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	AncestorId   int       `gorm:"column:ancestor_id;not null;uniqueIndex:idx_ref_link_pair;index" json:"ancestor_id"`
	DescendantId int       `gorm:"column:descendant_id;not null;uniqueIndex:idx_ref_link_pair" json:"descendant_id"`
	Level        int       `gorm:"column:level;not null" json:"level"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ReferralLink) TableName() string {
	return "referral_links"
}
