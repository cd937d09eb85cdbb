package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
)

// ListUsers returns every employee. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser registers a new employee. Admin only.
func (c *Client) CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	if err := req.Validate(); err != nil {
		return user.User{}, err
	}
	var created user.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", req, &created); err != nil {
		// The request validated locally, so a 400 here is the backend's
		// duplicate-email rejection.
		return user.User{}, asSentinel(err, http.StatusBadRequest, user.ErrEmailExists)
	}
	return created, nil
}

// DeleteUser removes an employee. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
	return asSentinel(err, http.StatusNotFound, user.ErrUserNotFound)
}

// UserLeaveStats fetches a user's leave usage summary, optionally
// scoped to one month.
func (c *Client) UserLeaveStats(ctx context.Context, id int64, year, month int) (user.LeaveStats, error) {
	path := fmt.Sprintf("/users/%d/leave-stats", id)
	if year > 0 && month > 0 {
		path = fmt.Sprintf("%s?year=%d&month=%d", path, year, month)
	}
	var stats user.LeaveStats
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return user.LeaveStats{}, err
	}
	return stats, nil
}
