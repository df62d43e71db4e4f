// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/holomush/opsdash/internal/auth"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print an argon2id hash for a principal password",
		Long: `Read a password and print its argon2id PHC hash for use as a
principal password in the config file. On a terminal the password is read
twice without echo; otherwise the first line of stdin is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hash, err := auth.NewArgon2idHasher().Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return readTerminalPassword(int(f.Fd()), prompt) //nolint:gosec // fd fits in int
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Wrapf(err, "read password")
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", auth.ErrEmptyPassword
	}
	return line, nil
}

func readTerminalPassword(fd int, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", oops.Wrapf(err, "read password")
	}
	fmt.Fprint(prompt, "Confirm: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", oops.Wrapf(err, "read password")
	}
	if string(first) != string(second) {
		return "", oops.Code("PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	if len(first) == 0 {
		return "", auth.ErrEmptyPassword
	}
	return string(first), nil
}
