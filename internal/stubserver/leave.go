package stubserver

import (
	"encoding/json"
	"net/http"

	"github.com/leaveapproval/attendance-client-go/internal/domain/leave"
)

func (s *Server) handleApplyLeave(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := s.identity(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
		return
	}

	var req leave.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if u, ok := s.store.userByID(callerID); ok {
		req.EmployeeName = u.FullName()
		req.EmployeeEmail = u.Email
	}
	created := s.store.insertLeave(callerID, req)
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleMyLeaves(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := s.identity(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
		return
	}
	requests := s.store.listLeaves(func(_ leave.Request, ownerID int64) bool {
		return ownerID == callerID
	})
	if requests == nil {
		requests = []leave.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleAllLeaves(w http.ResponseWriter, r *http.Request) {
	requests := s.store.listLeaves(nil)
	if requests == nil {
		requests = []leave.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handlePendingLeaves(w http.ResponseWriter, r *http.Request) {
	requests := s.store.listLeaves(func(req leave.Request, _ int64) bool {
		return req.Status == leave.StatusPending
	})
	if requests == nil {
		requests = []leave.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleApproveLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid leave request id")
		return
	}

	var decision leave.Approval
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := decision.Validate(); err != nil {
		writeError(w, err)
		return
	}

	req, _, found := s.store.leaveByID(id)
	if !found {
		writeMessage(w, http.StatusNotFound, "Leave request not found")
		return
	}
	if req.Status != leave.StatusPending {
		writeMessage(w, http.StatusBadRequest, "Leave request has already been processed")
		return
	}

	req.Status = decision.Status
	req.AdminComment = decision.AdminComment
	if callerID, _, err := s.identity(r); err == nil {
		if u, ok := s.store.userByID(callerID); ok {
			req.ApprovedByName = u.FullName()
		}
	}
	s.store.updateLeave(req)
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeleteLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid leave request id")
		return
	}
	if !s.store.deleteLeave(id) {
		writeMessage(w, http.StatusNotFound, "Leave request not found")
		return
	}
	writeMessage(w, http.StatusOK, "Leave request deleted successfully")
}
