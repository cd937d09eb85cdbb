package stubserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leaveapproval/attendance-client-go/internal/domain/attendance"
)

const maxPhotoUpload = 10 << 20

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := s.identity(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
		return
	}

	var rec attendance.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if rec.UserID == 0 {
		rec.UserID = callerID
	}
	if rec.Status == "" {
		rec.Status = attendance.StatusInProgress
	}

	s.createCheckIn(w, rec)
}

func (s *Server) handleCheckInFile(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := s.identity(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
		return
	}
	if err := r.ParseMultipartForm(maxPhotoUpload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}

	userID, _ := strconv.ParseInt(r.FormValue("userId"), 10, 64)
	if userID == 0 {
		userID = callerID
	}
	rec := attendance.Record{
		UserID:      userID,
		Date:        r.FormValue("date"),
		CheckInTime: r.FormValue("checkInTime"),
		Status:      attendance.Status(r.FormValue("status")),
	}
	if rec.Status == "" {
		rec.Status = attendance.StatusInProgress
	}
	if lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64); err == nil {
		rec.Latitude = &lat
	}
	if lng, err := strconv.ParseFloat(r.FormValue("longitude"), 64); err == nil {
		rec.Longitude = &lng
	}

	key, ok := s.storePhoto(r, "checkInPhoto")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Check-in photo is required")
		return
	}
	rec.CheckInPhoto = &key

	s.createCheckIn(w, rec)
}

// createCheckIn persists a new record, enforcing one open session per
// user per day.
func (s *Server) createCheckIn(w http.ResponseWriter, rec attendance.Record) {
	if rec.Date == "" || rec.CheckInTime == "" {
		writeMessage(w, http.StatusBadRequest, "date and checkInTime are required")
		return
	}
	if open := s.store.openRecord(rec.UserID, rec.Date); open != nil {
		writeMessage(w, http.StatusBadRequest, "You have already checked in today")
		return
	}
	created := s.store.insertRecord(rec)
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid attendance id")
		return
	}
	var partial attendance.Record
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	s.completeCheckOut(w, id, partial.CheckOutTime, partial.CheckOutPhoto)
}

func (s *Server) handleCheckOutFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid attendance id")
		return
	}
	if err := r.ParseMultipartForm(maxPhotoUpload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}

	checkOutTime := r.FormValue("checkOutTime")
	key, hasPhoto := s.storePhoto(r, "checkOutPhoto")
	var photoRef *string
	if hasPhoto {
		photoRef = &key
	}
	s.completeCheckOut(w, id, &checkOutTime, photoRef)
}

func (s *Server) completeCheckOut(w http.ResponseWriter, id int64, checkOutTime *string, photo *string) {
	rec, ok := s.store.recordByID(id)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Attendance record not found")
		return
	}
	if rec.Status == attendance.StatusCompleted {
		writeMessage(w, http.StatusBadRequest, "You have already checked out today")
		return
	}
	if checkOutTime == nil || *checkOutTime == "" {
		writeMessage(w, http.StatusBadRequest, "checkOutTime is required")
		return
	}

	rec.CheckOutTime = checkOutTime
	rec.Status = attendance.StatusCompleted
	if photo != nil {
		rec.CheckOutPhoto = photo
	}
	s.store.updateRecord(rec)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAttendanceByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	records := s.store.recordsByUser(userID)
	if records == nil {
		records = []attendance.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAttendanceByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid attendance id")
		return
	}
	rec, found := s.store.recordByID(id)
	if !found {
		writeMessage(w, http.StatusNotFound, "Attendance record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handlePhotoURL exchanges a storage object key for a short-lived
// display URL, mirroring the presigned-URL endpoint in production.
func (s *Server) handlePhotoURL(w http.ResponseWriter, r *http.Request) {
	key, ok := objectKey(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid photo key")
		return
	}
	if _, found := s.store.getObject(key); !found {
		writeMessage(w, http.StatusNotFound, "Photo not found")
		return
	}
	writeJSON(w, http.StatusOK, "http://"+r.Host+"/objects/"+key)
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	key, ok := objectKey(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid photo key")
		return
	}
	data, found := s.store.getObject(key)
	if !found {
		writeMessage(w, http.StatusNotFound, "Photo not found")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

// objectKey extracts the storage key from the wildcard segment. Keys
// contain a slash, so clients send them percent-encoded and the router
// hands the encoded form through.
func objectKey(r *http.Request) (string, bool) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// storePhoto reads the named multipart file into the object store.
func (s *Server) storePhoto(r *http.Request, field string) (string, bool) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return "", false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoUpload))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return s.store.putObject("attendance", data), true
}
