package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leaveapproval/attendance-client-go/internal/domain/leave"
)

// ApplyLeave submits a new leave request for the signed-in user.
func (c *Client) ApplyLeave(ctx context.Context, req leave.Request) (leave.Request, error) {
	if err := req.Validate(); err != nil {
		return leave.Request{}, err
	}
	var created leave.Request
	if err := c.doJSON(ctx, http.MethodPost, "/leaves/apply", req, &created); err != nil {
		return leave.Request{}, err
	}
	return created, nil
}

// MyLeaveRequests lists the signed-in user's requests.
func (c *Client) MyLeaveRequests(ctx context.Context) ([]leave.Request, error) {
	var requests []leave.Request
	if err := c.doJSON(ctx, http.MethodGet, "/leaves/my-requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// AllLeaveRequests lists every request. Admin only.
func (c *Client) AllLeaveRequests(ctx context.Context) ([]leave.Request, error) {
	var requests []leave.Request
	if err := c.doJSON(ctx, http.MethodGet, "/leaves/all", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// PendingLeaveRequests lists requests awaiting a decision. Admin only.
func (c *Client) PendingLeaveRequests(ctx context.Context) ([]leave.Request, error) {
	var requests []leave.Request
	if err := c.doJSON(ctx, http.MethodGet, "/leaves/pending", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ApproveLeaveRequest records the admin's decision.
func (c *Client) ApproveLeaveRequest(ctx context.Context, id int64, approval leave.Approval) (leave.Request, error) {
	if err := approval.Validate(); err != nil {
		return leave.Request{}, err
	}
	var updated leave.Request
	path := fmt.Sprintf("/leaves/%d/approve", id)
	if err := c.doJSON(ctx, http.MethodPut, path, approval, &updated); err != nil {
		err = asSentinel(err, http.StatusNotFound, leave.ErrRequestNotFound)
		return leave.Request{}, asSentinel(err, http.StatusBadRequest, leave.ErrAlreadyProcessed)
	}
	return updated, nil
}

// DeleteLeaveRequest withdraws a request.
func (c *Client) DeleteLeaveRequest(ctx context.Context, id int64) error {
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/leaves/%d", id), nil, nil)
	return asSentinel(err, http.StatusNotFound, leave.ErrRequestNotFound)
}
