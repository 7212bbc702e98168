package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/raushankrgupta/doctor-appointment/api"
	"github.com/raushankrgupta/doctor-appointment/config"
	"github.com/raushankrgupta/doctor-appointment/jobs"
	"github.com/raushankrgupta/doctor-appointment/service"
	"github.com/raushankrgupta/doctor-appointment/store"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "doctor-appointment",
		Short: "Doctor appointment booking API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			inMemory, _ := cmd.Flags().GetBool("in-memory")
			noCron, _ := cmd.Flags().GetBool("no-cron")
			return runServer(inMemory, noCron)
		},
	}
	cmd.Flags().Bool("in-memory", false, "Keep data in memory instead of MongoDB")
	cmd.Flags().Bool("no-cron", false, "Do not schedule the daily reminder job")
	return cmd
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			firstname, _ := cmd.Flags().GetString("firstname")
			lastname, _ := cmd.Flags().GetString("lastname")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			utils.InitLogger(cfg.Server.IsDev())

			ctx := context.Background()
			app, err := buildApp(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer app.close()

			user, err := app.svc.Accounts.CreateAdmin(ctx, service.RegisterInput{
				Firstname: firstname,
				Lastname:  lastname,
				Email:     email,
				Password:  password,
			})
			if err != nil {
				return err
			}
			utils.Logger.Info().Str("id", user.ID.Hex()).Str("email", user.Email).Msg("Admin created")
			return nil
		},
	}
	cmd.Flags().String("firstname", "Admin", "First name")
	cmd.Flags().String("lastname", "User", "Last name")
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("password", "", "Login password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

type application struct {
	svc     *service.Services
	tokens  *utils.TokenManager
	hub     *api.NotificationHub
	mailer  service.Mailer
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects the configured backends. Redis and S3 are optional and
// left out when not configured or unreachable.
func buildApp(ctx context.Context, cfg *config.AppConfig, inMemory bool) (*application, error) {
	tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), cfg.Auth.ResetTokenTTL())
	if err != nil {
		return nil, err
	}
	a := &application{tokens: tokens, hub: api.NewNotificationHub()}

	var st *store.Store
	if inMemory {
		utils.Logger.Warn().Msg("Using the in-memory store; data is lost on exit")
		st = store.NewMemoryStore()
	} else {
		client, err := utils.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				utils.Logger.Error().Err(err).Msg("MongoDB disconnect failed")
			}
		})
		if err := store.EnsureIndexes(ctx, client, cfg.Mongo.Database); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		st = store.NewMongoStore(client, cfg.Mongo.Database, store.MongoOptions{
			Transactions: cfg.Mongo.Transactions,
			Timeout:      cfg.Mongo.Timeout(),
		})
		utils.Logger.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")
	}

	deps := service.Deps{
		Store:     st,
		Tokens:    tokens,
		Publisher: a.hub,
		ClientURL: cfg.Server.ClientURL,
	}

	switch {
	case cfg.Mail.SendGridAPIKey != "":
		deps.Mailer = &utils.SendGridMailer{APIKey: cfg.Mail.SendGridAPIKey, FromName: cfg.Mail.FromName, FromEmail: cfg.Mail.FromEmail}
	case cfg.Mail.SMTPHost != "":
		deps.Mailer = &utils.SMTPMailer{
			Host:      cfg.Mail.SMTPHost,
			Port:      cfg.Mail.SMTPPort,
			Username:  cfg.Mail.SMTPUser,
			Password:  cfg.Mail.SMTPPassword,
			FromName:  cfg.Mail.FromName,
			FromEmail: cfg.Mail.FromEmail,
		}
	default:
		utils.Logger.Warn().Msg("No mail provider configured; emails are only logged")
		deps.Mailer = utils.LogMailer{}
	}
	a.mailer = deps.Mailer

	if cfg.AWS.BucketName != "" {
		pictures, err := utils.NewS3Storage(ctx, cfg.AWS.Region, cfg.AWS.BucketName)
		if err != nil {
			utils.Logger.Warn().Err(err).Msg("S3 unavailable; picture uploads disabled")
		} else {
			deps.Pictures = pictures
		}
	}

	if cfg.Redis.Addr != "" {
		cache, err := utils.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "doctors:", cfg.Redis.CacheTTL())
		if err != nil {
			utils.Logger.Warn().Err(err).Msg("Redis unavailable; doctor list cache disabled")
		} else {
			deps.Cache = cache
			a.closers = append(a.closers, func() { cache.Close() })
		}
	}

	a.svc = service.New(deps)
	return a, nil
}

func runServer(inMemory, noCron bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	utils.InitLogger(cfg.Server.IsDev())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, inMemory)
	if err != nil {
		return err
	}
	defer app.close()

	if !noCron {
		reminders := jobs.NewReminders(app.svc, app.mailer)
		if err := reminders.Start(cfg.Reminder.Cron); err != nil {
			return err
		}
		defer func() { <-reminders.Stop().Done() }()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(utils.LatencyMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.Origins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	api.NewAPI(app.svc, app.tokens, app.hub).InitRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx so open notification streams close on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	utils.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	utils.Logger.Info().Msg("Server exited")
	return nil
}
