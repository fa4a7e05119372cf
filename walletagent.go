// Originally derived from: btcsuite/btcwallet/btcwallet.go
// Copyright (c) 2013-2014 The btcsuite developers

// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"runtime"

	"github.com/yteriumR/ripple-client/idmgr"
)

var (
	cfg             *Config
	shutdownChannel = make(chan struct{})
)

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Work around defer not working after os.Exit.
	if err := walletMain(); err != nil {
		os.Exit(1)
	}
}

// walletMain is a work-around main function that is required since deferred
// functions (such as log flushing) are not called with calls to os.Exit.
// Instead, main runs this function and checks for a non-nil error, at which
// point any defers have already run, and if the error is non-nil, the program
// can be exited with an error exit status.
func walletMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg
	defer backendLog.Flush()

	// Open the wallet database and the blob backends in their priority
	// order.
	s, backends, closeAll, err := openDatabases(cfg)
	if err != nil {
		log.Errorf("%v", err)
		return err
	}
	defer closeAll()

	mgr := idmgr.New(&idmgr.Config{
		Backends:       backends,
		Store:          s,
		PersistentAuth: cfg.PersistentAuth,
	})

	// Announce lifecycle transitions in the log. Secrets stay out of it.
	mgr.Subscribe(func(e idmgr.Event) {
		switch e.Kind {
		case idmgr.EventUserChange:
			log.Debugf("Session user is now %q", e.Username)
		case idmgr.EventAccountUnload:
			log.Debugf("Account %s unloaded", e.Account)
		case idmgr.EventAccountLoad:
			log.Debugf("Account %s loaded", e.Account)
		case idmgr.EventBlobUpdate:
			log.Tracef("Profile updated")
		case idmgr.EventBlobSave:
			log.Debugf("Profile saved to backends")
		}
	})

	// With --create, register the account interactively and exit.
	if cfg.Create {
		return createAccount(cfg, mgr)
	}

	// Restore the previous session when persistent auth is enabled.
	if err := mgr.Init(context.Background()); err != nil {
		log.Warnf("Could not restore previous session: %v", err)
	}
	if mgr.IsLoggedIn() {
		log.Infof("Session restored for %s", mgr.Username())
	} else if mgr.IsReturning() {
		log.Info("Waiting for a returning user to log in")
	}

	// Let in-flight profile saves finish before the process goes away.
	addInterruptHandler(mgr.WaitForSaves)

	log.Infof("Wallet agent version %s ready", version())

	// Wait for the shutdown signal from the interrupt handler.
	<-shutdownChannel
	log.Info("Shutdown complete")
	return nil
}
