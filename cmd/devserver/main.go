package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v3"

	"github.com/leaveapproval/attendance-client-go/internal/config"
	"github.com/leaveapproval/attendance-client-go/internal/stubserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-devserver"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	server := stubserver.New([]byte(cfg.Server.JWTSecret), logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("Stub backend running at http://localhost%s\n", addr)
	fmt.Println("Seeded accounts: admin@company.com/admin123, john.doe@company.com/password123")
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		fmt.Println("Server error:", err)
	}
}
