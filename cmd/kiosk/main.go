package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leaveapproval/attendance-client-go/internal/api"
	"github.com/leaveapproval/attendance-client-go/internal/config"
	"github.com/leaveapproval/attendance-client-go/internal/domain/leave"
	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
	"github.com/leaveapproval/attendance-client-go/internal/pkg/session"
	workflow "github.com/leaveapproval/attendance-client-go/internal/service/attendance"
	"github.com/leaveapproval/attendance-client-go/internal/service/attendancestate"
	"github.com/leaveapproval/attendance-client-go/internal/service/capture"
	"github.com/leaveapproval/attendance-client-go/internal/service/location"
)

type kiosk struct {
	client   *api.Client
	session  *session.Store
	cache    *attendancestate.Service
	capture  *capture.Pipeline
	location *location.Pipeline
	flow     *workflow.Service
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.App.LogLevel),
	})).With(
		slog.String("app", "attendance-kiosk"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	store, err := session.NewStore(cfg.Session.Path)
	if err != nil {
		fmt.Println("Error opening session store:", err)
		return
	}

	client := api.NewClient(cfg.APIBaseURL(), cfg.API.Timeout, store, logger)
	cache := attendancestate.NewService(logger)
	capturePipeline := capture.NewPipeline(&capture.FileCamera{Source: cfg.Camera.Source}, logger)
	capturePipeline.RegisterSurface(capture.ModeCheckIn, capture.NewPreviewSurface())
	capturePipeline.RegisterSurface(capture.ModeCheckOut, capture.NewPreviewSurface())

	var provider location.Provider
	if cfg.Location.Mode == "static" {
		provider = &location.StaticProvider{Fix: location.Fix{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}}
	} else {
		provider = location.Unsupported{}
	}
	locationPipeline := location.NewPipeline(provider, logger)

	k := &kiosk{
		client:   client,
		session:  store,
		cache:    cache,
		capture:  capturePipeline,
		location: locationPipeline,
		flow:     workflow.NewService(client, cache, capturePipeline, locationPipeline, logger),
	}
	defer k.flow.Close()

	ctx := context.Background()
	k.resumeSession(ctx)
	k.run(ctx)
}

// resumeSession re-adopts a stored sign-in on startup, matching the
// browser client surviving a page reload.
func (k *kiosk) resumeSession(ctx context.Context) {
	if !k.session.IsAuthenticated() {
		return
	}
	u := k.session.CurrentUser()
	if u == nil || k.session.Expired(time.Now()) {
		_ = k.session.Clear()
		return
	}
	fmt.Printf("Resuming session for %s\n", u.FullName())
	if err := k.flow.Start(ctx, u.ID); err != nil {
		fmt.Println("Could not reconcile attendance status:", err)
	}
}

func (k *kiosk) run(ctx context.Context) {
	fmt.Println("Attendance kiosk. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		k.dispatch(ctx, args[0], args[1:])
	}
}

func (k *kiosk) dispatch(ctx context.Context, cmd string, args []string) {
	var err error
	switch cmd {
	case "help":
		printHelp()
	case "login":
		err = k.login(ctx, args)
	case "logout":
		err = k.logout()
	case "status":
		k.printStatus()
	case "camera":
		err = k.flow.StartCamera(ctx)
		if err == nil {
			fmt.Println("Camera active")
		}
	case "capture":
		err = k.capturePhoto(ctx)
	case "upload":
		err = k.uploadPhoto(args)
	case "location":
		err = k.acquireLocation(ctx)
	case "checkin":
		err = k.checkIn(ctx)
	case "checkout":
		err = k.checkOut(ctx)
	case "history":
		err = k.printHistory()
	case "leaves":
		err = k.listLeaves(ctx)
	case "apply":
		err = k.applyLeave(ctx, args)
	case "pending":
		err = k.pendingLeaves(ctx)
	case "approve":
		err = k.approveLeave(ctx, args)
	case "users":
		err = k.listUsers(ctx)
	default:
		fmt.Println("Unknown command. Type 'help' for commands.")
	}
	if err != nil {
		fmt.Println("Error:", err)
	}
}

func (k *kiosk) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	resp, err := k.client.SignIn(ctx, user.LoginRequest{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	if err := k.session.SetSession(resp.AccessToken, resp.User()); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s %s (%s)\n", resp.FirstName, resp.LastName, resp.Role)
	return k.flow.Start(ctx, resp.ID)
}

func (k *kiosk) logout() error {
	k.flow.Close()
	k.cache.Logout()
	if err := k.session.Clear(); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func (k *kiosk) printStatus() {
	phase := k.flow.Phase()
	fmt.Println("Phase:", phase)
	fmt.Println("Camera:", k.capture.State())
	if fix, ok := k.location.Current(); ok {
		fmt.Printf("Location: %.6f, %.6f\n", fix.Latitude, fix.Longitude)
	} else {
		fmt.Println("Location: not acquired")
	}
	if rec := k.flow.CurrentRecord(); rec != nil {
		fmt.Printf("Open session: record %d, checked in at %s\n", *rec.ID, rec.CheckInTime)
	}
}

// capturePhoto grabs a frame for whichever phase the workflow is in.
func (k *kiosk) capturePhoto(ctx context.Context) error {
	photo, err := k.flow.CapturePhoto(ctx, k.currentMode())
	if err != nil {
		return err
	}
	fmt.Printf("Captured %s (%d bytes)\n", photo.Filename, len(photo.Data))
	return nil
}

func (k *kiosk) uploadPhoto(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: upload <path>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	photo, err := k.flow.UploadPhoto(k.currentMode(), filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Printf("Attached %s (%d bytes)\n", photo.Filename, len(photo.Data))
	return nil
}

func (k *kiosk) acquireLocation(ctx context.Context) error {
	fix, err := k.flow.EnableLocation(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Location acquired: %.6f, %.6f\n", fix.Latitude, fix.Longitude)
	return nil
}

func (k *kiosk) checkIn(ctx context.Context) error {
	rec, err := k.flow.CheckIn(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Checked in at %s (record %d)\n", rec.CheckInTime, *rec.ID)
	return nil
}

func (k *kiosk) checkOut(ctx context.Context) error {
	rec, err := k.flow.CheckOut(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Checked out at %s\n", *rec.CheckOutTime)
	return nil
}

func (k *kiosk) printHistory() error {
	records := k.flow.History()
	if len(records) == 0 {
		fmt.Println("No attendance records")
		return nil
	}
	for _, rec := range records {
		out := "-"
		if rec.CheckOutTime != nil {
			out = *rec.CheckOutTime
		}
		fmt.Printf("%s  in %s  out %s  %s\n", rec.Date, rec.CheckInTime, out, rec.Status)
	}
	return nil
}

func (k *kiosk) listLeaves(ctx context.Context) error {
	requests, err := k.client.MyLeaveRequests(ctx)
	if err != nil {
		return err
	}
	printLeaves(requests)
	return nil
}

func (k *kiosk) applyLeave(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return errors.New("usage: apply <start> <end> <type> <reason...>")
	}
	req := leave.Request{
		StartDate: args[0],
		EndDate:   args[1],
		LeaveType: args[2],
		Reason:    strings.Join(args[3:], " "),
	}
	created, err := k.client.ApplyLeave(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Leave request %d submitted (%s)\n", *created.ID, created.Status)
	return nil
}

func (k *kiosk) pendingLeaves(ctx context.Context) error {
	requests, err := k.client.PendingLeaveRequests(ctx)
	if err != nil {
		return err
	}
	printLeaves(requests)
	return nil
}

func (k *kiosk) approveLeave(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: approve <id> APPROVED|REJECTED [comment...]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.New("invalid leave request id")
	}
	decision := leave.Approval{Status: args[1]}
	if len(args) > 2 {
		decision.AdminComment = strings.Join(args[2:], " ")
	}
	updated, err := k.client.ApproveLeaveRequest(ctx, id, decision)
	if err != nil {
		return err
	}
	fmt.Printf("Leave request %d is now %s\n", *updated.ID, updated.Status)
	return nil
}

func (k *kiosk) listUsers(ctx context.Context) error {
	users, err := k.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%d  %s  %s  %s\n", u.ID, u.FullName(), u.Email, u.Role)
	}
	return nil
}

func (k *kiosk) currentMode() capture.Mode {
	if k.flow.Phase() == workflow.PhaseAwaitingCheckOut {
		return capture.ModeCheckOut
	}
	return capture.ModeCheckIn
}

func printLeaves(requests []leave.Request) {
	if len(requests) == 0 {
		fmt.Println("No leave requests")
		return
	}
	for _, req := range requests {
		fmt.Printf("%d  %s..%s  %s  %s  %s\n",
			*req.ID, req.StartDate, req.EndDate, req.LeaveType, req.Status, req.EmployeeName)
	}
}

func printHelp() {
	fmt.Println(`Commands:
  login <email> <password>   sign in
  logout                     sign out
  status                     workflow, camera, and location state
  camera                     start the camera
  capture                    capture a photo for the current phase
  upload <path>              attach an image file instead
  location                   acquire a location fix
  checkin                    submit check-in
  checkout                   submit check-out
  history                    attendance history
  leaves                     my leave requests
  apply <start> <end> <type> <reason...>
  pending                    pending leave requests (admin)
  approve <id> <APPROVED|REJECTED> [comment...]
  users                      list users (admin)
  quit`)
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
