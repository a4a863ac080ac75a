package ads

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
)

type Ad struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Title        string   `gorm:"not null" json:"title"`
	Description  string   `gorm:"not null" json:"description"`
	Address      string   `gorm:"not null" json:"address"`
	Province     string   `gorm:"index;not null" json:"province"`
	City         string   `gorm:"not null" json:"city"`
	Lat          float64  `gorm:"not null" json:"lat"`
	Lng          float64  `gorm:"not null" json:"lng"`
	Images       []string `gorm:"serializer:json" json:"images"`
	Phone        string   `gorm:"not null" json:"phone"`
	UserNotes    *string  `json:"userNotes,omitempty"`
	AdminNotes   *string  `json:"adminNotes,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Area         *float64 `json:"area,omitempty"`
	Rooms        *int     `json:"rooms,omitempty"`
	PropertyType PropertyType `gorm:"type:varchar(32);default:apartment;index" json:"propertyType"`
	Status       Status   `gorm:"type:varchar(16);default:pending;index" json:"status"`
	Rating       int      `gorm:"default:0" json:"rating"`
	ViewCount    int64    `gorm:"default:0" json:"viewCount"`
	ClickCount   int64    `gorm:"default:0" json:"clickCount"`
	UserID       uint     `gorm:"index;not null" json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Ad) TableName() string {
	return "ads"
}

// Stats is the admin moderation overview.
type Stats struct {
	TotalAds    int64 `json:"totalAds"`
	ApprovedAds int64 `json:"approvedAds"`
	PendingAds  int64 `json:"pendingAds"`
	RejectedAds int64 `json:"rejectedAds"`
	TotalViews  int64 `json:"totalViews"`
	TotalClicks int64 `json:"totalClicks"`
}

// Dashboard aggregates one owner's ads.
type Dashboard struct {
	TotalAds    int   `json:"totalAds"`
	ApprovedAds int   `json:"approvedAds"`
	PendingAds  int   `json:"pendingAds"`
	RejectedAds int   `json:"rejectedAds"`
	TotalViews  int64 `json:"totalViews"`
	TotalClicks int64 `json:"totalClicks"`
	RecentAds   []Ad  `json:"recentAds"`
}
