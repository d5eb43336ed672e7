package client

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := c.call(ctx, http.MethodGet, "/api/users", nil, nil, &users, "사용자 목록 조회 중 오류가 발생했습니다."); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListPendingUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := c.call(ctx, http.MethodGet, "/api/users/pending", nil, nil, &users, "승인 대기 사용자 조회 중 오류가 발생했습니다."); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ApproveUser(ctx context.Context, userID int64) error {
	return c.call(ctx, http.MethodPatch, userPath(userID)+"/approve", nil, nil, nil, "사용자 승인 중 오류가 발생했습니다.")
}

func (c *Client) RevokeUser(ctx context.Context, userID int64) error {
	return c.call(ctx, http.MethodPatch, userPath(userID)+"/revoke", nil, nil, nil, "승인 취소 중 오류가 발생했습니다.")
}

func (c *Client) UpdateUser(ctx context.Context, userID int64, update UserUpdate) (User, error) {
	var user User
	if err := c.call(ctx, http.MethodPut, userPath(userID), nil, update, &user, "사용자 정보 수정 중 오류가 발생했습니다."); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.call(ctx, http.MethodDelete, userPath(userID), nil, nil, nil, "사용자 삭제 중 오류가 발생했습니다.")
}

func userPath(userID int64) string {
	return fmt.Sprintf("/api/users/%d", userID)
}
