package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/leaveapproval/attendance-client-go/internal/domain/attendance"
)

// CheckIn submits a check-in with an inline photo payload and returns
// the created record with its server-assigned id.
func (c *Client) CheckIn(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	var created attendance.Record
	if err := c.doJSON(ctx, http.MethodPost, "/attendance/check-in", record, &created); err != nil {
		return attendance.Record{}, err
	}
	return created, nil
}

// CheckInWithFile submits a check-in as a multipart upload.
func (c *Client) CheckInWithFile(ctx context.Context, req attendance.CheckInRequest) (attendance.Record, error) {
	fields := map[string]string{
		"userId":      strconv.FormatInt(req.UserID, 10),
		"date":        req.Date,
		"checkInTime": req.CheckInTime,
		"status":      string(attendance.StatusInProgress),
		"latitude":    strconv.FormatFloat(req.Latitude, 'f', -1, 64),
		"longitude":   strconv.FormatFloat(req.Longitude, 'f', -1, 64),
	}
	return c.postMultipart(ctx, http.MethodPost, "/attendance/check-in/file", fields, "checkInPhoto", req.Photo)
}

// CheckOut finalizes the open record with an inline photo payload.
func (c *Client) CheckOut(ctx context.Context, id int64, partial attendance.Record) (attendance.Record, error) {
	var updated attendance.Record
	path := fmt.Sprintf("/attendance/check-out/%d", id)
	if err := c.doJSON(ctx, http.MethodPut, path, partial, &updated); err != nil {
		return attendance.Record{}, err
	}
	return updated, nil
}

// CheckOutWithFile finalizes the open record as a multipart upload.
func (c *Client) CheckOutWithFile(ctx context.Context, req attendance.CheckOutRequest) (attendance.Record, error) {
	fields := map[string]string{
		"checkOutTime": req.CheckOutTime,
		"status":       string(attendance.StatusCompleted),
	}
	path := fmt.Sprintf("/attendance/check-out/%d/file", req.RecordID)
	return c.postMultipart(ctx, http.MethodPut, path, fields, "checkOutPhoto", req.Photo)
}

// ListByUser fetches a user's attendance history. The backend orders
// newest-date-first already; the client re-sorts as a safety net.
func (c *Client) ListByUser(ctx context.Context, userID int64) ([]attendance.Record, error) {
	var records []attendance.Record
	path := fmt.Sprintf("/attendance/user/%d", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].CheckInTime > records[j].CheckInTime
	})
	return records, nil
}

// GetByID fetches one attendance record.
func (c *Client) GetByID(ctx context.Context, id int64) (attendance.Record, error) {
	var record attendance.Record
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/attendance/%d", id), nil, &record); err != nil {
		return attendance.Record{}, asSentinel(err, http.StatusNotFound, attendance.ErrRecordNotFound)
	}
	return record, nil
}

// ResolvePhotoURL exchanges a storage object key for a temporary
// display URL. References that are already displayable (data: or http)
// pass through without a network call.
func (c *Client) ResolvePhotoURL(ctx context.Context, objectKey string) (string, error) {
	if attendance.PhotoIsDisplayable(objectKey) {
		return objectKey, nil
	}

	path := "/attendance/photo/" + url.PathEscape(objectKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read photo URL: %w", err)
	}

	// The endpoint answers a bare string; some deployments JSON-quote it.
	text := strings.TrimSpace(string(data))
	var quoted string
	if json.Unmarshal(data, &quoted) == nil && quoted != "" {
		return quoted, nil
	}
	return text, nil
}

func (c *Client) postMultipart(ctx context.Context, method, path string, fields map[string]string, fileField string, photo attendance.Photo) (attendance.Record, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return attendance.Record{}, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile(fileField, photo.Filename)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(photo.Data); err != nil {
		return attendance.Record{}, fmt.Errorf("failed to write photo payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return attendance.Record{}, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), &buf)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var record attendance.Record
	if err := c.send(req, &record); err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}
