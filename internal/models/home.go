package models

import "time"

// HomeContentID is the well-known id of the landing page singleton.
const HomeContentID = "home"

// HomeContentModel holds the landing page block document.
type HomeContentModel struct {
	ID        string    `json:"id"         gorm:"type:varchar(32);primaryKey"`
	Content   string    `json:"-"          gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (HomeContentModel) TableName() string { return "home_contents" }
