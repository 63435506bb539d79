// Package model 定义核心数据模型
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotificationSettings 通知开关
type NotificationSettings struct {
	Email          bool `json:"email" bson:"email"`
	Browser        bool `json:"browser" bson:"browser"`
	WeeklyDigest   bool `json:"weeklyDigest" bson:"weekly_digest"`
	SitemapUpdates bool `json:"sitemapUpdates" bson:"sitemap_updates"`
	SecurityAlerts bool `json:"securityAlerts" bson:"security_alerts"`
}

// PreferenceSettings 站点地图与界面偏好
type PreferenceSettings struct {
	DefaultChangeFreq string `json:"defaultChangeFreq" bson:"default_change_freq"`
	DefaultPriority   string `json:"defaultPriority" bson:"default_priority"`
	DarkMode          bool   `json:"darkMode" bson:"dark_mode"`
	Language          string `json:"language" bson:"language"`
	Timezone          string `json:"timezone" bson:"timezone"`
	DateFormat        string `json:"dateFormat" bson:"date_format"`
}

// SecuritySettings 安全设置
type SecuritySettings struct {
	TwoFactorEnabled   bool      `json:"twoFactorEnabled" bson:"two_factor_enabled"`
	LastPasswordChange time.Time `json:"lastPasswordChange" bson:"last_password_change"`
}

// UserSettings 用户设置内嵌文档
// 三个子对象始终全部填充，注册时用 DefaultUserSettings 播种
type UserSettings struct {
	Notifications NotificationSettings `json:"notifications" bson:"notifications"`
	Preferences   PreferenceSettings   `json:"preferences" bson:"preferences"`
	Security      SecuritySettings     `json:"security" bson:"security"`
}

// User 用户（唯一持久化实体）
//
// PasswordHash 永不出现在 JSON 响应中（json:"-"），
// 读取路径还会在查询投影层面排除 password 字段。
type User struct {
	ID           bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name"`
	Email        string        `json:"email" bson:"email"`
	PasswordHash string        `json:"-" bson:"password,omitempty"`
	Company      string        `json:"company,omitempty" bson:"company,omitempty"`
	Role         string        `json:"role,omitempty" bson:"role,omitempty"`
	Avatar       string        `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Settings     UserSettings  `json:"settings" bson:"settings"`
	CreatedAt    time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updated_at"`
}

// DefaultUserSettings 返回注册时播种的固定默认设置文档
func DefaultUserSettings(now time.Time) UserSettings {
	return UserSettings{
		Notifications: NotificationSettings{
			Email:          true,
			Browser:        true,
			WeeklyDigest:   true,
			SitemapUpdates: true,
			SecurityAlerts: true,
		},
		Preferences: PreferenceSettings{
			DefaultChangeFreq: "weekly",
			DefaultPriority:   "0.8",
			DarkMode:          false,
			Language:          "en",
			Timezone:          "UTC",
			DateFormat:        "YYYY-MM-DD",
		},
		Security: SecuritySettings{
			TwoFactorEnabled:   false,
			LastPasswordChange: now,
		},
	}
}

// Sanitize 返回去除密码哈希后的副本
// JSON 序列化本身不会输出 PasswordHash，这里额外清空以保证
// 结构体离开服务边界后不再携带任何秘密。
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.PasswordHash = ""
	return &clean
}
