// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package idmgr

import (
	"context"
	"errors"
	"sync"

	"github.com/yteriumR/ripple-client/blob"
	"github.com/yteriumR/ripple-client/keys"
	"github.com/yteriumR/ripple-client/store"
)

var (
	// ErrLoginFailed is returned when a profile cannot be fetched with
	// the given credentials or fails structural validation. The cause is
	// deliberately not distinguished to the caller; details go to the
	// log.
	ErrLoginFailed = errors.New("login failed")

	// ErrNoSession is returned by operations that require an active
	// session.
	ErrNoSession = errors.New("no active session")
)

// Config holds the collaborators and policy switches the Manager needs.
type Config struct {
	// Backends is the fixed priority order used for every fetch and
	// save. It is not mutated at runtime.
	Backends []blob.Backend

	// Store is the persistent local store used for the remembered-login
	// record and the returning-user marker. May be nil, in which case
	// neither is kept.
	Store *store.Store

	// PersistentAuth enables remembered-login caching and the automatic
	// session restore performed by Init.
	PersistentAuth bool

	// GotoLoginView is invoked after a logout to tell the hosting
	// application to navigate to its unauthenticated view. May be nil.
	GotoLoginView func()
}

// Credentials is a snapshot of the session credentials for binding into
// a UI: the display-form username, the active account identifier and the
// master seed. All fields are empty while logged out.
type Credentials struct {
	Username   string
	Account    string
	MasterSeed string
}

// Manager owns the session state. All lifecycle operations and all
// access to the active profile go through it; the mutex serializes them
// so that interleaved operations cannot observe or produce a
// half-installed session.
type Manager struct {
	mutex          sync.Mutex
	backends       []blob.Backend
	store          *store.Store
	persistentAuth bool
	gotoLoginView  func()

	username    string
	password    string
	account     string // empty while no account is loaded
	loginStatus bool
	profile     *blob.Profile

	notifier notifier
	saves    sync.WaitGroup
}

// New creates a Manager holding the default profile and no session.
func New(cfg *Config) *Manager {
	return &Manager{
		backends:       cfg.Backends,
		store:          cfg.Store,
		persistentAuth: cfg.PersistentAuth,
		gotoLoginView:  cfg.GotoLoginView,
		profile:        blob.Default(),
	}
}

// Subscribe registers a handler for all future notifications. Handlers
// run synchronously on the emitting goroutine, in subscription order;
// they must not call back into the Manager's mutating operations.
func (m *Manager) Subscribe(handler func(Event)) {
	m.notifier.subscribe(handler)
}

// Init restores a remembered session. It does nothing unless persistent
// authentication is enabled and a login record was stored by a previous
// run.
func (m *Manager) Init(ctx context.Context) error {
	if !m.persistentAuth || m.store == nil {
		return nil
	}

	login, err := m.store.RememberedLogin()
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}

	log.Debugf("Restoring remembered session for %s", login.Username)
	_, err = m.Login(ctx, login.Username, login.Password)
	return err
}

// Register creates a new account. When masterSeed is empty a new seed is
// generated; otherwise the given seed is used as-is. The fresh profile
// is persisted to every backend before any session state changes, and
// the master seed is returned so the caller can show it to the user
// exactly once.
//
// A backend failure is returned to the caller; nothing is installed in
// that case.
func (m *Manager) Register(ctx context.Context, username, password, masterSeed string) (string, error) {
	username = NormalizeUsername(username)
	password = NormalizePassword(password)

	var err error
	if masterSeed == "" {
		masterSeed, err = keys.GenerateMasterSeed()
		if err != nil {
			return "", err
		}
	}
	accountID, err := keys.DeriveAccountID(masterSeed)
	if err != nil {
		return "", err
	}

	profile := blob.New(accountID, masterSeed)

	err = blob.Set(ctx, m.backends, LookupKey(username), password, profile)
	if err != nil {
		log.Errorf("Registration of %s could not be persisted: %v", username, err)
		return "", err
	}

	log.Infof("Registered account %s for %s", accountID, username)
	m.install(username, password, profile)
	return masterSeed, nil
}

// Login fetches and validates the profile stored under the given
// credentials and promotes it to active session state. The returned
// boolean reports whether the profile names an account: a profile whose
// account id is present but empty logs in successfully and reports
// false. Only a fetch failure or a profile missing its identity fields
// is reported as ErrLoginFailed, leaving the prior session state
// untouched.
func (m *Manager) Login(ctx context.Context, username, password string) (bool, error) {
	username = NormalizeUsername(username)
	password = NormalizePassword(password)

	profile, err := blob.Get(ctx, m.backends, LookupKey(username), password)
	if err != nil {
		log.Warnf("Login failed for %s: %v", username, err)
		return false, ErrLoginFailed
	}
	if !profile.Valid() {
		log.Warnf("Login failed for %s: profile is missing identity fields",
			username)
		return false, ErrLoginFailed
	}

	// Ensure certain properties exist.
	profile.Normalize()

	log.Infof("Logged in %s with account %s", username, profile.Data.AccountID)
	m.install(username, password, profile)
	return profile.HasAccount(), nil
}

// Logout tears the session down. Credentials are cleared, the profile
// reverts to the default shape and any remembered login is removed. No
// save happens: logout is a local reset, not a profile mutation.
func (m *Manager) Logout() {
	m.mutex.Lock()
	if m.store != nil {
		if err := m.store.ForgetLogin(); err != nil {
			log.Warnf("Could not clear remembered login: %v", err)
		}
	}
	m.loginStatus = false
	userChange := m.setUsernameLocked("")
	m.password = ""
	m.account = ""
	m.profile = blob.Default()
	gotoLogin := m.gotoLoginView
	m.mutex.Unlock()

	log.Info("Logged out")
	m.notifier.emit(userChange)
	if gotoLogin != nil {
		gotoLogin()
	}
}

// NotifyProfileMutated announces that the active profile changed and,
// when a session is active, re-persists it to every backend. The update
// notification fires synchronously; the save runs in the background and
// its completion is announced with EventBlobSave. Without an active
// session only the update notification fires.
func (m *Manager) NotifyProfileMutated() {
	m.mutex.Lock()
	active := m.username != "" && m.password != ""
	key := LookupKey(m.username)
	password := m.password
	snapshot := m.profile.Clone()
	if active {
		// The save is counted before the lock is released so that a
		// concurrent WaitForSaves cannot return between the snapshot
		// and the count.
		m.saves.Add(1)
	}
	m.mutex.Unlock()

	m.notifier.emit(Event{Kind: EventBlobUpdate})

	if !active {
		return
	}

	go func() {
		defer m.saves.Done()
		// Saves are never cancelled once started.
		err := blob.Set(context.Background(), m.backends, key, password, snapshot)
		if err != nil {
			log.Errorf("Could not save profile: %v", err)
			return
		}
		m.notifier.emit(Event{Kind: EventBlobSave})
	}()
}

// WaitForSaves blocks until every save that has been started has
// completed. Used at shutdown so a final mutation is not lost.
func (m *Manager) WaitForSaves() {
	m.saves.Wait()
}

// install promotes a profile to active session state. State is fully
// installed before any notification is delivered; the notifications then
// go out in the order the transitions occurred.
func (m *Manager) install(username, password string, profile *blob.Profile) {
	m.mutex.Lock()
	events := make([]Event, 0, 4)
	m.profile = profile
	events = append(events, m.setUsernameLocked(username))
	m.password = password
	events = append(events,
		m.setAccountLocked(profile.Data.AccountID, profile.Data.MasterSeed)...)
	m.storeLoginLocked(username, password)
	m.loginStatus = true
	events = append(events, Event{Kind: EventBlobUpdate})
	if m.store != nil {
		if err := m.store.SetKnown(); err != nil {
			log.Warnf("Could not record returning-user marker: %v", err)
		}
	}
	m.mutex.Unlock()

	for _, e := range events {
		m.notifier.emit(e)
	}
}

func (m *Manager) setUsernameLocked(username string) Event {
	m.username = username
	return Event{Kind: EventUserChange, Username: username}
}

// setAccountLocked installs the account identifier and key material. If
// an account was already loaded, the unload event for it precedes the
// load event for the replacement, so subscribers can act on the old
// account before it disappears.
func (m *Manager) setAccountLocked(accountID, masterSeed string) []Event {
	events := make([]Event, 0, 2)
	if m.account != "" {
		events = append(events, Event{
			Kind:    EventAccountUnload,
			Account: m.account,
		})
	}
	m.account = accountID
	events = append(events, Event{
		Kind:    EventAccountLoad,
		Account: accountID,
		Secret:  masterSeed,
	})
	return events
}

func (m *Manager) storeLoginLocked(username, password string) {
	if !m.persistentAuth || m.store == nil {
		return
	}
	err := m.store.RememberLogin(&store.Login{
		Username: username,
		Password: password,
	})
	if err != nil {
		log.Warnf("Could not remember login: %v", err)
	}
}

// Username returns the display-form username, or the empty string while
// logged out.
func (m *Manager) Username() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.username
}

// Account returns the active account identifier, or the empty string
// while no account is loaded.
func (m *Manager) Account() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.account
}

// IsLoggedIn reports whether a session is active.
func (m *Manager) IsLoggedIn() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.loginStatus
}

// IsReturning reports whether a user has ever logged in from this
// installation.
func (m *Manager) IsReturning() bool {
	if m.store == nil {
		return false
	}
	return m.store.Known()
}

// Credentials returns the bound credentials view.
func (m *Manager) Credentials() Credentials {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return Credentials{
		Username:   m.username,
		Account:    m.account,
		MasterSeed: m.profile.Data.MasterSeed,
	}
}

// Profile returns a copy of the active profile. Mutations of the copy do
// not affect the session; use the Manager's mutators or
// NotifyProfileMutated to change the active profile.
func (m *Manager) Profile() *blob.Profile {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.profile.Clone()
}
