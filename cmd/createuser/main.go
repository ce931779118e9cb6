// Command createuser adds an account to the projectdesk database.
//
//	createuser -email ana@example.com -username ana -roles ROLE_ADMIN
//
// Without -password the password is read from the terminal without echo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/config"
	"github.com/sakif/projectdesk/internal/server"
	"github.com/sakif/projectdesk/internal/service"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "createuser:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the YAML config file")
	email := fs.String("email", "", "email address (required)")
	username := fs.String("username", "", "username (required)")
	password := fs.String("password", "", "password; prompted for when empty")
	roles := fs.String("roles", "", "comma-separated roles, default ROLE_USER")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}

	if *password == "" {
		pw, err := promptPassword(stdout)
		if err != nil {
			return err
		}
		*password = pw
	}

	db, err := server.OpenDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	users := service.NewUserService(db, auth.NewPasswordService(), logger)
	user, err := users.Create(ctx, service.CreateUserInput{
		Email:    *email,
		Username: *username,
		Password: *password,
		Roles:    splitRoles(*roles),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "created user %d (%s, %s) with roles %s\n",
		user.ID, user.Username, user.Email, strings.Join(user.Roles, ","))
	return nil
}

func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(pw), nil
}

func splitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
