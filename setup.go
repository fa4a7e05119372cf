// Originally derived from: btcsuite/btcwallet/walletsetup.go
// Copyright (c) 2013-2014 The btcsuite developers

// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yteriumR/ripple-client/blob"
	"github.com/yteriumR/ripple-client/idmgr"
	"github.com/yteriumR/ripple-client/store"
)

var (
	consoleReader = bufio.NewReader(os.Stdin)
)

// openDatabases opens the local wallet database and the blob backends in
// their fixed priority order: the vault first when one is configured,
// then the local fallback. The returned closer releases all of them.
func openDatabases(cfg *Config) (*store.Store, []blob.Backend, func(), error) {
	s, err := store.Open(cfg.walletPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cannot open wallet database: %v", err)
	}

	local, err := blob.OpenLocal(cfg.blobPath)
	if err != nil {
		s.Close()
		return nil, nil, nil, fmt.Errorf("cannot open blob database: %v", err)
	}

	var backends []blob.Backend
	var vault *blob.Vault
	if cfg.Vault != "" {
		vault = blob.NewVault(cfg.Vault, cfg.VaultPassword, cfg.VaultDB)
		backends = append(backends, vault)
		log.Infof("Using vault backend at %s", cfg.Vault)
	}
	backends = append(backends, local)

	closer := func() {
		if vault != nil {
			vault.Close()
		}
		local.Close()
		s.Close()
	}
	return s, backends, closer, nil
}

// promptConsole prompts the user with the given prefix and returns the
// trimmed reply. The default entry is used when the reply is empty.
func promptConsole(prefix, defaultEntry string) (string, error) {
	if defaultEntry != "" {
		fmt.Printf("%s [%s]: ", prefix, defaultEntry)
	} else {
		fmt.Printf("%s: ", prefix)
	}

	reply, err := consoleReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = defaultEntry
	}
	return reply, nil
}

// promptConsolePass prompts the user for a password without echoing it,
// and asks for confirmation until both entries match.
func promptConsolePass(prefix string) (string, error) {
	for {
		fmt.Printf("%s: ", prefix)
		pass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		if len(pass) == 0 {
			continue
		}

		fmt.Print("Confirm password: ")
		confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}

		if string(pass) != string(confirm) {
			fmt.Println("The entered passwords do not match.")
			continue
		}

		return string(pass), nil
	}
}

// createAccount interactively registers a new wallet account and prints
// the master seed, which is shown exactly once.
func createAccount(cfg *Config, mgr *idmgr.Manager) error {
	username, err := promptConsole("Enter a username", "")
	if err != nil {
		return err
	}
	if idmgr.NormalizeUsername(username) == "" {
		return errors.New("username may not be empty")
	}

	password, err := promptConsolePass("Enter a password")
	if err != nil {
		return err
	}

	seed, err := mgr.Register(context.Background(), username, password, cfg.Seed)
	if err != nil {
		log.Errorf("Registration failed: %v", err)
		return err
	}

	fmt.Println("Account created. Your master seed is:")
	fmt.Println()
	fmt.Println("   ", seed)
	fmt.Println()
	fmt.Println("Write it down and keep it safe. It is not shown again.")
	return nil
}
