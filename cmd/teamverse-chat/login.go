package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/Fasilurahman/TeamVerse-sub001/apiclient"
	"github.com/Fasilurahman/TeamVerse-sub001/credential"
	"github.com/Fasilurahman/TeamVerse-sub001/realtime"
)

// tokenStore is the part of credential.Store the login flow uses.
type tokenStore interface {
	Token(username string) (string, error)
	SaveToken(username, token string) error
	DeleteToken(username string) error
}

// resumeToken returns username's stored token if it still decodes to a
// live identity. Stale tokens are removed.
func resumeToken(store tokenStore, username string) (string, bool) {
	if store == nil || username == "" {
		return "", false
	}

	token, err := store.Token(username)
	if err != nil {
		if !errors.Is(err, credential.ErrNoToken) {
			log.Printf("[cli] reading stored token: %v", err)
		}
		return "", false
	}

	if _, ok := realtime.DecodeIdentity(token); !ok {
		_ = store.DeleteToken(username)
		return "", false
	}
	return token, true
}

// login resumes a stored session or asks for credentials with a huh form
// and logs in. It returns the token and the username it belongs to.
func login(ctx context.Context, api *apiclient.Client, store tokenStore, username string) (string, string, error) {
	if token, ok := resumeToken(store, username); ok {
		return token, username, nil
	}

	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("username is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.RunWithContext(ctx); err != nil {
		return "", "", fmt.Errorf("login form: %w", err)
	}
	username = strings.TrimSpace(username)

	tokens, err := api.Login(ctx, username, password)
	if err != nil {
		return "", "", err
	}

	if store != nil {
		if err := store.SaveToken(username, tokens.AccessToken); err != nil {
			log.Printf("[cli] token not saved, you will be asked again next time: %v", err)
		}
	}
	return tokens.AccessToken, username, nil
}
