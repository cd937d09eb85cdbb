package stubserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leaveapproval/attendance-client-go/internal/domain/leave"
	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.listUsers())
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	for _, existing := range s.store.listUsers() {
		if strings.EqualFold(existing.Email, email) {
			writeMessage(w, http.StatusBadRequest, "Email already exists")
			return
		}
	}

	created := s.store.addUser(user.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       email,
		Department:  req.Department,
		Designation: req.Designation,
		Role:        req.Role,
	}, req.Password)
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if !s.store.deleteUser(id) {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

// handleLeaveStats summarizes approved leave usage for one user, with
// an optional year/month scope for the monthly columns.
func (s *Server) handleLeaveStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if _, found := s.store.userByID(id); !found {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}

	now := time.Now()
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	if year <= 0 || month <= 0 {
		year, month = now.Year(), int(now.Month())
	}

	var stats user.LeaveStats
	approved := s.store.listLeaves(func(req leave.Request, ownerID int64) bool {
		return ownerID == id && req.Status == leave.StatusApproved
	})
	for _, req := range approved {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			continue
		}
		days := int(end.Sub(start).Hours()/24) + 1

		stats.TotalLeaves++
		stats.TotalLeaveDays += days
		if start.Year() == year && int(start.Month()) == month {
			stats.MonthlyLeaves++
			stats.MonthlyLeaveDays += days
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
