// Command adduser creates a user account directly in the database.
// Useful for bootstrapping an instance before the registration endpoint
// is exposed.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"centime/internal/auth"
	"centime/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("user", "", "username for the new account")
	password := fs.String("password", "", "password (prompted if omitted)")
	dbPath := fs.String("db", "./data/centime.db", "path to the SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		return fmt.Errorf("-user is required")
	}

	pw := *password
	if pw == "" {
		var err error
		pw, err = promptPassword(stdin, stdout)
		if err != nil {
			return err
		}
	}
	if pw == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(*dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer repo.Close()

	user, err := repo.CreateUser(context.Background(), *username, hash)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Fprintf(stdout, "created user %q (id %d)\n", user.Username, user.ID)
	return nil
}

func promptPassword(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Password: ")
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
