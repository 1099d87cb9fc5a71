// Command seedadmin provisions an administrator account in the configured
// storage. Storage flags and environment are the same as for the server.
//
//	seedadmin -username admin                  # prompts for the password
//	echo pw | seedadmin -username admin -password-stdin
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/flagx"
	"github.com/dmitrijs2005/agrocms/internal/server"
	"github.com/dmitrijs2005/agrocms/internal/server/config"
	"github.com/dmitrijs2005/agrocms/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var provisionAdmin = server.ProvisionAdmin

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seedadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("username", "", "admin username")
	fromStdin := fs.Bool("password-stdin", false, "read the password from stdin")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-username", "--username", "-password-stdin", "--password-stdin"})); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("-username is required")
	}

	cfg, err := config.LoadConfigFrom(args)
	if err != nil {
		return err
	}

	password, err := getPassword(stdin, stdout, *fromStdin)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	outcome, err := provisionAdmin(ctx, cfg, *username, password, stderr)
	if err != nil {
		return err
	}

	switch outcome {
	case services.SeedCreated:
		fmt.Fprintf(stdout, "admin %q created\n", *username)
	case services.SeedExists:
		fmt.Fprintf(stdout, "admin %q already exists, nothing to do\n", *username)
	}
	return nil
}

func getPassword(stdin io.Reader, w io.Writer, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}
