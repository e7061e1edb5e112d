package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/config"
	"github.com/staffdesk/ems/internal/db"
	"github.com/staffdesk/ems/internal/filestore"
	"github.com/staffdesk/ems/internal/handler"
	"github.com/staffdesk/ems/internal/idalloc"
	"github.com/staffdesk/ems/internal/job"
	"github.com/staffdesk/ems/internal/middleware"
	"github.com/staffdesk/ems/internal/otp"
	"github.com/staffdesk/ems/internal/repo"
	"github.com/staffdesk/ems/internal/schedule"
	"github.com/staffdesk/ems/internal/service"
)

const otpRateWindow = 2 * time.Second

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ems",
		Short: "employee management backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run ems server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// newOTPBackend returns the configured backend and a close func for any
// client it opened.
func newOTPBackend(cfg *config.Config, conn *sql.DB) (otp.Backend, func(), error) {
	ttl := time.Duration(cfg.OTP.TTLSeconds) * time.Second
	switch cfg.OTP.Backend {
	case config.OTPBackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return otp.NewRedisBackend(client, ttl), func() { _ = client.Close() }, nil
	case config.OTPBackendMemory:
		return otp.NewMemoryBackend(cfg.OTP.MemoryCapacity, ttl), func() {}, nil
	default:
		return repo.NewOTPRepo(conn), func() {}, nil
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("otp_backend", cfg.OTP.Backend),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	taskRepo := repo.NewTaskRepo(conn)
	leaveRepo := repo.NewLeaveRepo(conn)
	attendanceRepo := repo.NewAttendanceRepo(conn)
	holidayRepo := repo.NewHolidayRepo(conn)

	backend, closeBackend, err := newOTPBackend(cfg, conn)
	if err != nil {
		return fmt.Errorf("init otp backend: %w", err)
	}
	defer closeBackend()
	otpTTL := time.Duration(cfg.OTP.TTLSeconds) * time.Second
	codes := otp.NewStore(backend,
		otp.WithCooldown(time.Duration(cfg.OTP.CooldownSeconds)*time.Second),
		otp.WithTTL(otpTTL),
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	jwtSecret := []byte(cfg.JWTSecret)
	mailSender := service.NewEmailSender(cfg.Mail)
	verifyService := service.NewVerificationService(codes, mailSender)
	accountService := service.NewAccountService(userRepo, idalloc.New(cfg.IDMaxAttempts))
	authService := service.NewAuthService(userRepo, accountService, verifyService, store, jwtSecret, time.Hour*time.Duration(cfg.JWTTTLHours))
	employeeService := service.NewEmployeeService(userRepo, taskRepo, leaveRepo, accountService, mailSender, cfg.Mail.LoginURL)
	taskService := service.NewTaskService(taskRepo, userRepo)
	leaveService := service.NewLeaveService(leaveRepo, userRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo, holidayRepo, leaveRepo, userRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if reaper, ok := backend.(otp.Reaper); ok {
		if err := scheduler.AddJob(job.NewOTPReapJob(reaper, otpTTL), cfg.OTP.ReapCron); err != nil {
			return fmt.Errorf("schedule otp reaper: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService, cfg.FileStore.MaxPhotoSize),
		Employees:     handler.NewEmployeeHandler(employeeService),
		Tasks:         handler.NewTaskHandler(taskService),
		Leaves:        handler.NewLeaveHandler(leaveService),
		Attendance:    handler.NewAttendanceHandler(attendanceService),
		Files:         handler.NewFileHandler(store),
		JWTSecret:     jwtSecret,
		OTPRateWindow: otpRateWindow,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
