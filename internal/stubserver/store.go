package stubserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/leaveapproval/attendance-client-go/internal/domain/attendance"
	"github.com/leaveapproval/attendance-client-go/internal/domain/leave"
	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
)

// store is the in-memory state behind the stub backend. Everything is
// lost on restart, which is the point: development and tests start from
// the same seeded state every time.
type store struct {
	mu sync.Mutex

	users      map[int64]*account
	nextUserID int64

	records      map[int64]*attendance.Record
	nextRecordID int64

	leaves      map[int64]*leave.Request
	leaveOwners map[int64]int64
	nextLeaveID int64

	objects map[string][]byte
}

type account struct {
	user         user.User
	passwordHash []byte
}

func newStore() *store {
	s := &store{
		users:        make(map[int64]*account),
		nextUserID:   1,
		records:      make(map[int64]*attendance.Record),
		nextRecordID: 1,
		leaves:       make(map[int64]*leave.Request),
		leaveOwners:  make(map[int64]int64),
		nextLeaveID:  1,
		objects:      make(map[string][]byte),
	}
	s.seed()
	return s
}

func (s *store) seed() {
	s.addUser(user.User{
		FirstName: "Admin", LastName: "User",
		Email: "admin@company.com", Department: "Management",
		Designation: "Administrator", Role: user.RoleAdmin,
	}, "admin123")
	s.addUser(user.User{
		FirstName: "John", LastName: "Doe",
		Email: "john.doe@company.com", Department: "Engineering",
		Designation: "Engineer", Role: user.RoleEmployee,
	}, "password123")
}

func (s *store) addUser(u user.User, password string) user.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextUserID
	s.nextUserID++
	s.users[u.ID] = &account{user: u, passwordHash: hash}
	return u
}

func (s *store) authenticate(email, password string) (user.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.users {
		if strings.EqualFold(acct.user.Email, email) {
			if bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) == nil {
				return acct.user, true
			}
			return user.User{}, false
		}
	}
	return user.User{}, false
}

func (s *store) userByID(id int64) (user.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[id]
	if !ok {
		return user.User{}, false
	}
	return acct.user, true
}

func (s *store) listUsers() []user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]user.User, 0, len(s.users))
	for _, acct := range s.users {
		users = append(users, acct.user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *store) deleteUser(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}

// openRecord returns the user's InProgress record for the date, if any.
func (s *store) openRecord(userID int64, date string) *attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.UserID == userID && rec.Date == date && rec.Status == attendance.StatusInProgress {
			return rec.Clone()
		}
	}
	return nil
}

func (s *store) insertRecord(rec attendance.Record) attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextRecordID
	s.nextRecordID++
	rec.ID = &id
	s.records[id] = rec.Clone()
	return rec
}

func (s *store) recordByID(id int64) (attendance.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return attendance.Record{}, false
	}
	return *rec.Clone(), true
}

func (s *store) updateRecord(rec attendance.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[*rec.ID] = rec.Clone()
}

func (s *store) recordsByUser(userID int64) []attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendance.Record
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, *rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CheckInTime > out[j].CheckInTime
	})
	return out
}

// putObject stores photo bytes and returns the storage object key.
func (s *store) putObject(prefix string, data []byte) string {
	key := fmt.Sprintf("%s/%s.jpg", prefix, uuid.NewString())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return key
}

func (s *store) getObject(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

func (s *store) insertLeave(ownerID int64, req leave.Request) leave.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextLeaveID
	s.nextLeaveID++
	req.ID = &id
	req.Status = leave.StatusPending
	s.leaves[id] = &req
	s.leaveOwners[id] = ownerID
	return req
}

func (s *store) leaveByID(id int64) (leave.Request, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.leaves[id]
	if !ok {
		return leave.Request{}, 0, false
	}
	return *req, s.leaveOwners[id], true
}

func (s *store) updateLeave(req leave.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[*req.ID] = &req
}

func (s *store) deleteLeave(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leaves[id]; !ok {
		return false
	}
	delete(s.leaves, id)
	delete(s.leaveOwners, id)
	return true
}

func (s *store) listLeaves(filter func(req leave.Request, ownerID int64) bool) []leave.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []leave.Request
	for id, req := range s.leaves {
		if filter == nil || filter(*req, s.leaveOwners[id]) {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ID < *out[j].ID })
	return out
}
