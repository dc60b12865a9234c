package models

import "time"

// Sale 表示一条销售记录
// id 和 created_at 由服务端分配，客户端不可修改
type Sale struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	UserID    uint    `gorm:"index;not null" json:"-"`
	Name      string  `gorm:"size:128;not null" json:"name"`
	Value     float64 `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
