// File: internal/model/user.go
package model

import "time"

// User 對應資料表 "user"。delete_at 欄位未映射，沒有流程讀寫它。
type User struct {
	ID           int       `db:"id" json:"id"`
	ExternalID   *string   `db:"user_id" json:"user_id"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password" json:"-"`
	Email        *string   `db:"email_address" json:"email_address"`
	CreatedAt    time.Time `db:"create_at" json:"create_at"`
	UpdatedAt    time.Time `db:"update_at" json:"update_at"`
	OperationAt  time.Time `db:"operation_at" json:"operation_at"`
}
