package api

import (
	"context"
	"net/http"

	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
)

// SignIn authenticates against POST /auth/signin. The email is
// normalized before send to match backend behavior.
func (c *Client) SignIn(ctx context.Context, req user.LoginRequest) (user.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return user.LoginResponse{}, err
	}

	var resp user.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signin", req, &resp); err != nil {
		return user.LoginResponse{}, asSentinel(err, http.StatusUnauthorized, user.ErrInvalidCredentials)
	}
	return resp, nil
}
