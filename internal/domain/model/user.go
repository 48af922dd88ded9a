package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// admin ⊇ moderator ⊇ user の階層。
// 新しいroleは行を足すだけで追加できる。
var RoleHierarchy = map[Role][]Role{
	RoleAdmin:     {RoleAdmin, RoleModerator, RoleUser},
	RoleModerator: {RoleModerator, RoleUser},
	RoleUser:      {RoleUser},
}

// roleがrequiredのいずれかをカバーしているか。
func (r Role) Covers(required ...Role) bool {
	effective := RoleHierarchy[r]
	for _, req := range required {
		for _, eff := range effective {
			if eff == req {
				return true
			}
		}
	}
	return false
}

type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Username     string `gorm:"type:varchar(30);not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'user'"`

	//退会・凍結ユーザーはfalse
	Active bool `gorm:"not null;default:true"`

	//これより古い世代のtokenは全部無効
	SessionVersion int `gorm:"not null;default:0"`

	//現在有効なrefresh tokenのhash（1ユーザーにつき1つ）。無ければNULL
	RefreshTokenHash *string `gorm:"index"`

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
