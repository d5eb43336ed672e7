package client

import (
	"context"
	"net/http"
)

// Register submits the registration form after formatting the phone number.
// Form violations are returned as *ValidationError without a request.
func (c *Client) Register(ctx context.Context, name, phone string) (AuthResult, error) {
	form, err := Credentials{Name: name, Phone: phone}.Normalize()
	if err != nil {
		return AuthResult{}, err
	}

	var dto identityDTO
	err = c.call(ctx, http.MethodPost, "/api/auth/register", nil,
		map[string]string{"name": form.Name, "phone": form.Phone}, &dto,
		"회원가입 중 오류가 발생했습니다.")
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: dto.toUser(), Token: dto.Token}, nil
}

func (c *Client) Login(ctx context.Context, name, phone string) (AuthResult, error) {
	form, err := Credentials{Name: name, Phone: phone}.Normalize()
	if err != nil {
		return AuthResult{}, err
	}

	var dto identityDTO
	err = c.call(ctx, http.MethodPost, "/api/auth/login", nil,
		map[string]string{"name": form.Name, "phone": form.Phone}, &dto,
		"로그인 중 오류가 발생했습니다.")
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: dto.toUser(), Token: dto.Token}, nil
}

// Me fetches the authoritative profile of the token holder.
func (c *Client) Me(ctx context.Context) (User, error) {
	var dto identityDTO
	if err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, nil, &dto, "사용자 정보 조회 중 오류가 발생했습니다."); err != nil {
		return User{}, err
	}
	return dto.toUser(), nil
}
