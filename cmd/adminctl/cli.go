package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/dtroode/userhub/internal/model"
)

// AdminCreator creates verified administrator accounts.
type AdminCreator interface {
	CreateAdmin(ctx context.Context, email, password, nickname string) (model.User, error)
}

// RoleAssigner changes a user's role without an acting principal.
type RoleAssigner interface {
	AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) (model.User, error)
}

// PasswordFunc prompts for a secret.
type PasswordFunc func(prompt string) (string, error)

var errUsage = errors.New("usage: adminctl <create-admin|set-role> [flags]")

type CLI struct {
	Admins   AdminCreator
	Roles    RoleAssigner
	Password PasswordFunc
	Out      io.Writer
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "create-admin":
		return c.createAdmin(ctx, args[1:])
	case "set-role":
		return c.setRole(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func (c *CLI) createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "admin email address")
	nickname := fs.String("nickname", "", "nickname, generated when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("create-admin: -email is required")
	}

	password, err := c.Password("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.Password("Repeat password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return errors.New("create-admin: passwords do not match")
	}

	user, err := c.Admins.CreateAdmin(ctx, *email, password, *nickname)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Fprintf(c.Out, "created admin %s (%s) id=%s\n", user.Email, user.Nickname, user.ID)
	return nil
}

func (c *CLI) setRole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	rawID := fs.String("user-id", "", "user id")
	rawRole := fs.String("role", "", "ANONYMOUS, AUTHENTICATED, MANAGER or ADMIN")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID, err := uuid.Parse(*rawID)
	if err != nil {
		return fmt.Errorf("set-role: invalid -user-id: %w", err)
	}
	role, err := model.ParseRole(*rawRole)
	if err != nil {
		return fmt.Errorf("set-role: %w", err)
	}

	user, err := c.Roles.AssignRole(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}

	fmt.Fprintf(c.Out, "user %s is now %s\n", user.ID, user.Role)
	return nil
}

// terminalPassword reads without echo from a terminal and falls back to
// reading lines, so passwords can be piped in scripts.
func terminalPassword(in *os.File, prompt io.Writer) PasswordFunc {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return linePassword(bufio.NewReader(in))
	}

	return func(p string) (string, error) {
		fmt.Fprint(prompt, p)
		defer fmt.Fprintln(prompt)

		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func linePassword(r *bufio.Reader) PasswordFunc {
	return func(string) (string, error) {
		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
