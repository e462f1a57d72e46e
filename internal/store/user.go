package store

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/database"
	"account-service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserNotFound 依名稱查無使用者
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 違反 name 唯一索引
	ErrUserExists = errors.New("user already exists")
)

// uniqueViolation 為 PostgreSQL 的 unique_violation SQLSTATE
const uniqueViolation = "23505"

const userColumns = `id, user_id::text, name, password, email_address, create_at, update_at, operation_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Name,
		&u.PasswordHash,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.OperationAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByName 以名稱完全比對查詢使用者
func GetUserByName(ctx context.Context, db database.DB, name string) (*model.User, error) {
	row := db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM "user" WHERE name = $1`,
		name,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("GetUserByName: %w", ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByName: %w", err)
	}
	return u, nil
}

// CreateUser 寫入新使用者，時間欄位由資料庫預設值產生。
// 名稱重複時回傳 ErrUserExists。
func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO "user" (user_id, name, password, email_address)
		 VALUES ($1::text::uuid, $2, $3, $4)
		 RETURNING `+userColumns,
		u.ExternalID,
		u.Name,
		u.PasswordHash,
		u.Email,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("CreateUser: %w", ErrUserExists)
		}
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return created, nil
}
