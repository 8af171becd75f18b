package model

import "time"

// CookieRecord 持久化的 Cookie
// (name, domain, path) 唯一标识一个 Cookie
type CookieRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null;uniqueIndex:idx_cookie_key" json:"name"`
	Domain     string     `gorm:"not null;uniqueIndex:idx_cookie_key;index" json:"domain"`
	Path       string     `gorm:"not null;uniqueIndex:idx_cookie_key" json:"path"`
	Value      string     `gorm:"type:text" json:"value"`
	Expires    *int64     `gorm:"index" json:"expires,omitempty"` // 毫秒时间戳，为空表示会话 Cookie
	Secure     bool       `json:"secure"`
	HTTPOnly   bool       `gorm:"column:http_only" json:"httpOnly"`
	HostOnly   bool       `gorm:"column:host_only" json:"hostOnly"`
	LastAccess time.Time  `json:"lastAccess"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Models 需要迁移的模型
func Models() []any {
	return []any{&CookieRecord{}}
}
