package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"chatbackup/pkg/auth"

	"golang.org/x/term"
)

// stdin is shared by every prompt so buffered input is never lost between them
var stdin = bufio.NewReader(os.Stdin)

// promptLine asks for a value until a non-blank line is entered. The answer
// is trimmed.
func promptLine(r *bufio.Reader, w io.Writer, label string) (string, error) {
	for {
		fmt.Fprintf(w, "%s: ", label)
		line, err := r.ReadString('\n')
		if value := strings.TrimSpace(line); value != "" {
			return value, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%s is required", strings.ToLower(label))
			}
			return "", err
		}
		fmt.Fprintf(w, "%s cannot be empty\n", label)
	}
}

// readSecret prompts for a value without echoing it when stdin is a
// terminal, and falls back to a plain line otherwise
func readSecret(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return promptLine(stdin, os.Stdout, label)
	}

	for {
		fmt.Printf("%s: ", label)
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after the hidden input
		if err != nil {
			return "", err
		}
		if value := strings.TrimSpace(string(secret)); value != "" {
			return value, nil
		}
		fmt.Printf("%s cannot be empty\n", label)
	}
}

// credentialSource is the part of auth.Manager used to find a token
type credentialSource interface {
	Retrieve(name string) (*auth.Credential, error)
	RetrieveDefault() (*auth.Credential, error)
}

// resolveToken picks the bearer token for a run. A named account wins, then
// a token from flags or configuration, then the default stored credential,
// and finally ask is called.
func resolveToken(configured, account string, creds credentialSource, ask func() (string, error)) (token, source string, err error) {
	if account != "" {
		if creds == nil {
			return "", "", fmt.Errorf("%w: %s", auth.ErrStoreUnavailable, account)
		}
		cred, err := creds.Retrieve(account)
		if err != nil {
			return "", "", err
		}
		return cred.Token, "account " + cred.Name, nil
	}

	if token := strings.TrimSpace(configured); token != "" {
		return token, "configuration", nil
	}

	if creds != nil {
		if cred, err := creds.RetrieveDefault(); err == nil && cred.Token != "" {
			return cred.Token, "account " + cred.Name, nil
		}
	}

	token, err = ask()
	if err != nil {
		return "", "", err
	}
	return token, "prompt", nil
}
