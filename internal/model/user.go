// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュのみを保持し、平文は一切持たない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary はAPIレスポンスに含めるユーザー情報の読み取り専用サブセット。
// クライアントはこのコピーをキャッシュするだけで、書き換えは行わない。
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Summary はUserからAPIレスポンス用のUserSummaryを生成する。
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}
