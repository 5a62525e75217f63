package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/treatment-calendar/internal/app"
)

var errInterrupted = errors.New("interrupted")

func newHashPasswordCmd(g *globals) *cobra.Command {
	var overwrite, insecureUnmask bool
	var authFile string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Create the auth.secret file with an Argon2id password hash",
		Long: `Prompts for a username and password and writes "username:hash" to the
auth file used by "serve". Without an auth file the API runs unprotected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := authFile
			if path == "" {
				cfg, err := app.LoadConfig(g.configPath)
				if err != nil {
					return err
				}
				if path, err = cfg.AuthFilePath(); err != nil {
					return err
				}
			}

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			fmt.Fprint(out, "Enter username: ")
			username, err := readLine(in)
			if err != nil {
				return fmt.Errorf("reading username: %w", err)
			}
			if username == "" {
				return errors.New("username cannot be empty")
			}

			var password, confirm string
			if insecureUnmask || !term.IsTerminal(int(os.Stdin.Fd())) {
				if insecureUnmask {
					fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  WARNING: Password will be visible on screen!")
				}
				fmt.Fprint(out, "Enter password:   ")
				if password, err = readLine(in); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				fmt.Fprint(out, "Confirm password: ")
				if confirm, err = readLine(in); err != nil {
					return fmt.Errorf("reading password confirmation: %w", err)
				}
			} else {
				if password, err = readPasswordWithMask(out, "Enter password:   "); err != nil {
					return err
				}
				if confirm, err = readPasswordWithMask(out, "Confirm password: "); err != nil {
					return err
				}
			}

			if password == "" {
				return errors.New("password cannot be empty")
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}
			return app.CreateAuthFile(path, username, password, overwrite, in, out)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing auth file without asking")
	cmd.Flags().BoolVar(&insecureUnmask, "insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	cmd.Flags().StringVar(&authFile, "auth-file", "", "Path to auth file (default: AUTH_FILE or auth.secret next to the binary)")
	return cmd
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPasswordWithMask reads a password from the terminal and echoes one
// asterisk per character.
func readPasswordWithMask(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// hidden input without the asterisks
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return string(password), err
	}
	defer term.Restore(fd, oldState)

	var password []byte
	reader := bufio.NewReader(os.Stdin)
	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			fmt.Fprint(out, "\r\n")
			return string(password), nil
		}

		switch char {
		case '\n', '\r':
			fmt.Fprint(out, "\r\n")
			return string(password), nil
		case 127, 8: // backspace, delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(out, "\b \b")
			}
		case 3: // Ctrl+C
			fmt.Fprint(out, "\r\n")
			return "", errInterrupted
		default:
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Fprint(out, "*")
			}
		}
	}
}
