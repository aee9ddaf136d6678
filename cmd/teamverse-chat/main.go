// Command teamverse-chat is a terminal client for TeamVerse chat and
// notifications.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Fasilurahman/TeamVerse-sub001/apiclient"
	"github.com/Fasilurahman/TeamVerse-sub001/credential"
	"github.com/Fasilurahman/TeamVerse-sub001/realtime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "teamverse-chat:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", DefaultConfigPath(), "path to config.yaml")
	logout := flag.Bool("logout", false, "forget the stored token and exit")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// the TUI owns the terminal; logs go to a file in debug mode only
	log.SetOutput(io.Discard)
	if cfg.Debug {
		f, err := tea.LogToFile("teamverse-chat.log", "")
		if err != nil {
			return err
		}
		defer f.Close()
	}

	store, err := credential.Open()
	if err != nil {
		log.Printf("[cli] keyring unavailable: %v", err)
	}
	var tokens tokenStore
	if store != nil {
		tokens = store
	}

	if *logout {
		if tokens == nil || cfg.Username == "" {
			return fmt.Errorf("nothing to log out: no keyring or username configured")
		}
		return tokens.DeleteToken(cfg.Username)
	}

	ctx := context.Background()
	api := apiclient.New(cfg.ServerURL, apiclient.WithTimeout(cfg.RequestTimeout))

	token, _, err := login(ctx, api, tokens, cfg.Username)
	if err != nil {
		return err
	}

	client := realtime.New(realtime.ConnConfig{URL: cfg.WSURL}, api)
	client.SetDebug(cfg.Debug)
	if err := client.Start(ctx, token); err != nil {
		return err
	}
	defer client.Close()

	me, _ := client.Identity()
	m := newModel(client, me, cfg.RequestTimeout)
	m.startProject = cfg.Project

	p := tea.NewProgram(m, tea.WithAltScreen())
	client.OnChange(func(c realtime.Change) {
		p.Send(changeMsg(c))
	})

	_, err = p.Run()
	return err
}
