package model

import "time"

// EmployeeRange は事業者の従業員数レンジを表す。
type EmployeeRange string

const (
	EmployeeRange1To10    EmployeeRange = "1-10"
	EmployeeRange11To50   EmployeeRange = "11-50"
	EmployeeRange51To200  EmployeeRange = "51-200"
	EmployeeRange201To500 EmployeeRange = "201-500"
	EmployeeRange500Plus  EmployeeRange = "500+"
)

// IsValid は従業員数レンジが定義済みのものかを返す。
func (e EmployeeRange) IsValid() bool {
	switch e {
	case EmployeeRange1To10, EmployeeRange11To50, EmployeeRange51To200,
		EmployeeRange201To500, EmployeeRange500Plus:
		return true
	}
	return false
}

// ContactInfo は事業者の連絡先。
type ContactInfo struct {
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// SocialLinks は事業者の公開SNSアカウントのURL。
// 投稿連携とは独立したプロフィール表示用のリンク。
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// BusinessProfile はユーザーごとに1件持てる事業者プロフィールを表す。
type BusinessProfile struct {
	ID            string
	UserID        string
	BusinessName  string
	Description   string
	ContactInfo   ContactInfo
	LogoURL       string
	Website       string
	SocialLinks   SocialLinks
	Industry      string
	FoundedYear   *int
	EmployeeCount EmployeeRange
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
