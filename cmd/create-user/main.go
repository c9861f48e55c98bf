package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deskhub/facility-backend/internal/config"
	"github.com/deskhub/facility-backend/internal/database"
	"github.com/deskhub/facility-backend/internal/policy"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type options struct {
	username  string
	password  string
	email     string
	role      string
	firstName string
	lastName  string
	phone     string
	company   string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("create-user", pflag.ContinueOnError)
	fs.StringVarP(&opts.username, "username", "u", "", "login name (required)")
	fs.StringVarP(&opts.password, "password", "p", "", "password, at least 8 characters (prompted when omitted)")
	fs.StringVar(&opts.email, "email", "", "email address (default <username>@example.com)")
	fs.StringVarP(&opts.role, "role", "r", string(policy.RoleMember), "role: member, staff or admin")
	fs.StringVar(&opts.firstName, "first-name", "", "first name")
	fs.StringVar(&opts.lastName, "last-name", "", "last name")
	fs.StringVar(&opts.phone, "phone", "", "contact phone number")
	fs.StringVar(&opts.company, "company", "", "company name")
	return fs
}

func main() {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if strings.TrimSpace(opts.username) == "" {
		fs.Usage()
		os.Exit(2)
	}

	if err := run(opts, logger); err != nil {
		logger.Errorf("Failed to create user: %v", err)
		os.Exit(1)
	}
}

// input converts the flags into a provisioning request. The password is
// left to the caller.
func (o options) input() (services.ProvisionInput, error) {
	role, err := policy.ParseRole(o.role)
	if err != nil {
		return services.ProvisionInput{}, err
	}
	username := strings.TrimSpace(o.username)
	email := strings.TrimSpace(o.email)
	if email == "" {
		email = username + "@example.com"
	}
	return services.ProvisionInput{
		Username:  username,
		Email:     email,
		Password:  o.password,
		Role:      role,
		FirstName: o.firstName,
		LastName:  o.lastName,
		Phone:     o.phone,
		Company:   o.company,
	}, nil
}

func run(opts options, logger *logrus.Logger) error {
	in, err := opts.input()
	if err != nil {
		return err
	}
	if in.Password == "" {
		if in.Password, err = promptPassword(); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	clock := services.SystemClock(loc)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	users := database.NewUserRepository(db)
	profiles := database.NewProfileRepository(db)
	audit := services.NewAuditService(database.NewAuditRepository(db), cfg.Security.EnableAuditLog, clock, logger)
	userService := services.NewUserService(database.NewTxManager(db), users, profiles, audit, cfg.Security.BcryptCost, clock, logger)

	user, profile, err := userService.Provision(ctx, in)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s %q (%s)\n", profile.Role, user.Username, user.ID)
	return nil
}

// promptPassword reads the password twice from the terminal without echo
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(first), nil
}
