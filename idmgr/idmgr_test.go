// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package idmgr_test

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yteriumR/ripple-client/blob"
	"github.com/yteriumR/ripple-client/idmgr"
	"github.com/yteriumR/ripple-client/keys"
	"github.com/yteriumR/ripple-client/store"
)

// recorder collects emitted events so tests can assert their order.
type recorder struct {
	mutex  sync.Mutex
	events []idmgr.Event
}

func (r *recorder) handle(e idmgr.Event) {
	r.mutex.Lock()
	r.events = append(r.events, e)
	r.mutex.Unlock()
}

func (r *recorder) all() []idmgr.Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	events := make([]idmgr.Event, len(r.events))
	copy(events, r.events)
	return events
}

func (r *recorder) first(k idmgr.EventKind) (idmgr.Event, bool) {
	for _, e := range r.all() {
		if e.Kind == k {
			return e, true
		}
	}
	return idmgr.Event{}, false
}

func (r *recorder) kinds() []idmgr.EventKind {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	kinds := make([]idmgr.EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (r *recorder) count(k idmgr.EventKind) int {
	n := 0
	for _, kind := range r.kinds() {
		if kind == k {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mutex.Lock()
	r.events = nil
	r.mutex.Unlock()
}

// testEnv wires a Manager to two local backends and a local store, all
// in a temporary directory.
type testEnv struct {
	mgr      *idmgr.Manager
	store    *store.Store
	backends []blob.Backend
	rec      *recorder
	cleanup  func()
}

func newTestEnv(t *testing.T, persistentAuth bool) *testEnv {
	dir, err := ioutil.TempDir("", "idmgrtest")
	if err != nil {
		panic(err)
	}

	primary, err := blob.OpenLocal(filepath.Join(dir, "primary.db"))
	if err != nil {
		t.Fatal("Failed to open primary backend:", err)
	}
	fallback, err := blob.OpenLocal(filepath.Join(dir, "fallback.db"))
	if err != nil {
		t.Fatal("Failed to open fallback backend:", err)
	}
	s, err := store.Open(filepath.Join(dir, "wallet.db"))
	if err != nil {
		t.Fatal("Failed to open store:", err)
	}

	backends := []blob.Backend{primary, fallback}
	mgr := idmgr.New(&idmgr.Config{
		Backends:       backends,
		Store:          s,
		PersistentAuth: persistentAuth,
	})

	rec := &recorder{}
	mgr.Subscribe(rec.handle)

	return &testEnv{
		mgr:      mgr,
		store:    s,
		backends: backends,
		rec:      rec,
		cleanup: func() {
			primary.Close()
			fallback.Close()
			s.Close()
			os.RemoveAll(dir)
		},
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	seed, err := env.mgr.Register(ctx, "  Alice  ", " secret ", "")
	if err != nil {
		t.Fatal("Failed to register:", err)
	}

	// The returned seed derives the active account.
	accountID, err := keys.DeriveAccountID(seed)
	if err != nil {
		t.Fatal("Returned seed does not decode:", err)
	}
	if env.mgr.Account() != accountID {
		t.Errorf("active account %q does not derive from seed (%q)",
			env.mgr.Account(), accountID)
	}

	// Credentials were normalized.
	if env.mgr.Username() != "Alice" {
		t.Errorf("expected username \"Alice\" got %q", env.mgr.Username())
	}
	if !env.mgr.IsLoggedIn() {
		t.Error("not logged in after registration")
	}
	if len(env.mgr.Contacts()) != 0 {
		t.Errorf("fresh profile has contacts: %v", env.mgr.Contacts())
	}
	if !env.mgr.IsReturning() {
		t.Error("returning-user marker not set after registration")
	}

	// The profile reached every backend, keyed by the lookup form and
	// the normalized password.
	for _, b := range env.backends {
		p, err := blob.Get(ctx, []blob.Backend{b}, "alice", "secret")
		if err != nil {
			t.Fatalf("profile missing from %s backend: %v", b.Name(), err)
		}
		if p.Data.MasterSeed != seed {
			t.Errorf("%s backend stored wrong seed", b.Name())
		}
	}

	// userchange, accountload and blobupdate all fired.
	if env.rec.count(idmgr.EventUserChange) != 1 {
		t.Error("expected one userchange event")
	}
	if env.rec.count(idmgr.EventAccountLoad) != 1 {
		t.Error("expected one accountload event")
	}
	if env.rec.count(idmgr.EventAccountUnload) != 0 {
		t.Error("accountunload fired on first account load")
	}
	if env.rec.count(idmgr.EventBlobUpdate) != 1 {
		t.Error("expected one blobupdate event")
	}
}

func TestRegisterWithSeedOverride(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()

	override, err := keys.GenerateMasterSeed()
	if err != nil {
		t.Fatal(err)
	}

	seed, err := env.mgr.Register(context.Background(), "alice", "secret", override)
	if err != nil {
		t.Fatal("Failed to register:", err)
	}
	if seed != override {
		t.Errorf("override seed not used: expected %q got %q", override, seed)
	}
}

func TestRegisterBackendFailure(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()

	// A manager with no backends cannot persist the fresh profile; the
	// failure must be reported and no session installed.
	mgr := idmgr.New(&idmgr.Config{})
	if _, err := mgr.Register(context.Background(), "alice", "secret", ""); err == nil {
		t.Fatal("registration succeeded with no backends")
	}
	if mgr.IsLoggedIn() {
		t.Error("session installed after failed registration")
	}
	if mgr.Username() != "" {
		t.Error("username set after failed registration")
	}
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	seed, err := env.mgr.Register(ctx, "Alice", "secret", "")
	if err != nil {
		t.Fatal("Failed to register:", err)
	}
	env.mgr.Logout()
	env.rec.reset()

	// Login with a different capitalization of the same username.
	hasAccount, err := env.mgr.Login(ctx, "ALICE", "secret")
	if err != nil {
		t.Fatal("Failed to log in:", err)
	}
	if !hasAccount {
		t.Error("login did not report an account id")
	}
	if !env.mgr.IsLoggedIn() {
		t.Error("not logged in after login")
	}

	creds := env.mgr.Credentials()
	if creds.Username != "ALICE" {
		t.Errorf("expected display username \"ALICE\" got %q", creds.Username)
	}
	if creds.MasterSeed != seed {
		t.Error("credentials view missing master seed")
	}

	env.rec.reset()
	var loginViewShown bool
	mgr2 := idmgr.New(&idmgr.Config{
		Backends: env.backends,
		Store:    env.store,
		GotoLoginView: func() {
			loginViewShown = true
		},
	})
	if _, err := mgr2.Login(ctx, "alice", "secret"); err != nil {
		t.Fatal("Failed to log in:", err)
	}
	mgr2.Logout()

	// Session state reverts to its pre-login defaults.
	if mgr2.IsLoggedIn() {
		t.Error("still logged in after logout")
	}
	if mgr2.Username() != "" || mgr2.Account() != "" {
		t.Error("credentials not cleared by logout")
	}
	creds = mgr2.Credentials()
	if creds.Username != "" || creds.Account != "" || creds.MasterSeed != "" {
		t.Errorf("credentials view not reset: %+v", creds)
	}
	if p := mgr2.Profile(); p.Valid() || len(p.Data.Contacts) != 0 {
		t.Error("profile not reset to default shape")
	}
	if !loginViewShown {
		t.Error("hosting application not told to show the login view")
	}
}

func TestLogoutEmitsNoBlobUpdate(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()

	if _, err := env.mgr.Register(context.Background(), "alice", "secret", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}
	env.rec.reset()

	env.mgr.Logout()

	if env.rec.count(idmgr.EventBlobUpdate) != 0 {
		t.Error("logout emitted blobupdate")
	}
	if env.rec.count(idmgr.EventUserChange) != 1 {
		t.Error("logout did not announce the cleared username")
	}
	if e, ok := env.rec.first(idmgr.EventUserChange); !ok {
		t.Error("no userchange recorded on logout")
	} else if e.Username != "" {
		t.Error("userchange on logout carries a username")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	if _, err := env.mgr.Register(ctx, "alice", "secret", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}
	env.mgr.Logout()
	env.rec.reset()

	if _, err := env.mgr.Login(ctx, "alice", "wrongpass"); err != idmgr.ErrLoginFailed {
		t.Errorf("expected ErrLoginFailed got %v", err)
	}
	if env.mgr.IsLoggedIn() {
		t.Error("logged in with wrong password")
	}
	if len(env.rec.kinds()) != 0 {
		t.Errorf("failed login emitted events: %v", env.rec.kinds())
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()

	if _, err := env.mgr.Login(context.Background(), "nobody", "pw"); err != idmgr.ErrLoginFailed {
		t.Errorf("expected ErrLoginFailed got %v", err)
	}
}

func TestLoginRejectsProfileWithoutSeed(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	// Store a structurally deficient profile directly, bypassing the
	// manager: it has an account id but no master seed.
	bad := blob.Default()
	bad.Data.AccountID = "rSomeAccount"
	if err := blob.Set(ctx, env.backends, "alice", "secret", bad); err != nil {
		t.Fatal("Failed to store profile:", err)
	}

	if _, err := env.mgr.Login(ctx, "alice", "secret"); err != idmgr.ErrLoginFailed {
		t.Errorf("expected ErrLoginFailed got %v", err)
	}
	if env.mgr.IsLoggedIn() || env.mgr.Username() != "" {
		t.Error("session state mutated by rejected login")
	}
}

func TestLoginEmptyAccountID(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	// A stored profile may carry an account id that is present but
	// empty. That is still a well-formed profile: login succeeds and
	// reports that no account is named.
	var p blob.Profile
	err := json.Unmarshal([]byte(`{"data":{"master_seed":"sSomeSeed",`+
		`"account_id":"","contacts":[]},"meta":{}}`), &p)
	if err != nil {
		t.Fatal("Failed to decode profile:", err)
	}
	if err := blob.Set(ctx, env.backends, "alice", "secret", &p); err != nil {
		t.Fatal("Failed to store profile:", err)
	}

	hasAccount, err := env.mgr.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatal("Failed to log in:", err)
	}
	if hasAccount {
		t.Error("login reported an account id for an empty one")
	}
	if !env.mgr.IsLoggedIn() {
		t.Error("not logged in")
	}
	if env.mgr.Account() != "" {
		t.Errorf("unexpected active account %q", env.mgr.Account())
	}

	// A profile with no account id field at all is still rejected.
	var q blob.Profile
	err = json.Unmarshal([]byte(`{"data":{"master_seed":"sSomeSeed",`+
		`"contacts":[]},"meta":{}}`), &q)
	if err != nil {
		t.Fatal("Failed to decode profile:", err)
	}
	if err := blob.Set(ctx, env.backends, "bob", "hunter2", &q); err != nil {
		t.Fatal("Failed to store profile:", err)
	}
	if _, err := env.mgr.Login(ctx, "bob", "hunter2"); err != idmgr.ErrLoginFailed {
		t.Errorf("expected ErrLoginFailed got %v", err)
	}
}

func TestAccountUnloadPrecedesLoad(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	if _, err := env.mgr.Register(ctx, "alice", "secret", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}
	firstAccount := env.mgr.Account()

	if _, err := env.mgr.Register(ctx, "bob", "hunter2", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}
	secondAccount := env.mgr.Account()
	env.rec.reset()

	// A login while bob's account is loaded must unload it first.
	if _, err := env.mgr.Login(ctx, "alice", "secret"); err != nil {
		t.Fatal("Failed to log in:", err)
	}

	var sawUnload bool
	for _, e := range env.rec.all() {
		switch e.Kind {
		case idmgr.EventAccountUnload:
			sawUnload = true
			if e.Account != secondAccount {
				t.Errorf("accountunload for wrong account %q, expected %q",
					e.Account, secondAccount)
			}
		case idmgr.EventAccountLoad:
			if !sawUnload {
				t.Error("accountload fired before accountunload")
			}
			if e.Account != firstAccount {
				t.Errorf("accountload for wrong account %q", e.Account)
			}
		}
	}
	if !sawUnload {
		t.Error("no accountunload fired when replacing a loaded account")
	}
}

func TestContactMutationSaves(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	if _, err := env.mgr.Register(ctx, "alice", "secret", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}
	env.rec.reset()

	err := env.mgr.AddContact(blob.Contact{Name: "bob", Address: "rBob"})
	if err != nil {
		t.Fatal("Failed to add contact:", err)
	}
	env.mgr.WaitForSaves()

	kinds := env.rec.kinds()
	if len(kinds) != 2 || kinds[0] != idmgr.EventBlobUpdate ||
		kinds[1] != idmgr.EventBlobSave {
		t.Fatalf("expected blobupdate then blobsave, got %v", kinds)
	}

	// The saved profile contains the new contact.
	p, err := blob.Get(ctx, env.backends, "alice", "secret")
	if err != nil {
		t.Fatal("Failed to fetch profile:", err)
	}
	if len(p.Data.Contacts) != 1 || p.Data.Contacts[0].Address != "rBob" {
		t.Errorf("saved profile missing contact: %v", p.Data.Contacts)
	}

	// Remove it again and check it is gone from the backends.
	env.rec.reset()
	if err := env.mgr.RemoveContact("rBob"); err != nil {
		t.Fatal("Failed to remove contact:", err)
	}
	env.mgr.WaitForSaves()

	p, err = blob.Get(ctx, env.backends, "alice", "secret")
	if err != nil {
		t.Fatal("Failed to fetch profile:", err)
	}
	if len(p.Data.Contacts) != 0 {
		t.Errorf("removed contact still saved: %v", p.Data.Contacts)
	}

	if err := env.mgr.RemoveContact("rNobody"); err != idmgr.ErrUnknownContact {
		t.Errorf("expected ErrUnknownContact got %v", err)
	}
}

func TestWaitForSavesCoversPendingMutations(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	if _, err := env.mgr.Register(ctx, "alice", "secret", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}
	env.rec.reset()

	// Interleave mutation notifications with shutdown-style waits. Every
	// mutation whose notification has returned must be covered by a
	// later wait, so after the final wait every save has announced
	// itself.
	const mutations = 25
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < mutations; i++ {
			env.mgr.NotifyProfileMutated()
		}
	}()

	waiting := true
	for waiting {
		env.mgr.WaitForSaves()
		select {
		case <-done:
			waiting = false
		default:
		}
	}
	env.mgr.WaitForSaves()

	if n := env.rec.count(idmgr.EventBlobSave); n != mutations {
		t.Errorf("expected %d blobsave events got %d", mutations, n)
	}
}

func TestContactsRequireSession(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()

	err := env.mgr.AddContact(blob.Contact{Name: "bob", Address: "rBob"})
	if err != idmgr.ErrNoSession {
		t.Errorf("expected ErrNoSession got %v", err)
	}
}

func TestNotifyWithoutSession(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()

	// Without an active session the update notification still fires,
	// but nothing is persisted.
	env.mgr.NotifyProfileMutated()
	env.mgr.WaitForSaves()

	kinds := env.rec.kinds()
	if len(kinds) != 1 || kinds[0] != idmgr.EventBlobUpdate {
		t.Fatalf("expected a single blobupdate, got %v", kinds)
	}
}

func TestPersistentAuth(t *testing.T) {
	env := newTestEnv(t, true)
	defer env.cleanup()
	ctx := context.Background()

	if _, err := env.mgr.Register(ctx, "Alice", "secret", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}

	// The credential pair was cached for restart restore.
	login, err := env.store.RememberedLogin()
	if err != nil {
		t.Fatal("no remembered login after registration:", err)
	}
	if login.Username != "Alice" || login.Password != "secret" {
		t.Errorf("remembered login mangled: %+v", login)
	}

	// A new manager over the same store auto-restores the session.
	mgr2 := idmgr.New(&idmgr.Config{
		Backends:       env.backends,
		Store:          env.store,
		PersistentAuth: true,
	})
	if err := mgr2.Init(ctx); err != nil {
		t.Fatal("Init failed:", err)
	}
	if !mgr2.IsLoggedIn() {
		t.Error("session not restored from remembered login")
	}

	// Logout clears the cache.
	mgr2.Logout()
	if _, err := env.store.RememberedLogin(); err != store.ErrNotFound {
		t.Errorf("remembered login survives logout: %v", err)
	}
}

func TestPersistentAuthDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	defer env.cleanup()
	ctx := context.Background()

	if _, err := env.mgr.Register(ctx, "alice", "secret", ""); err != nil {
		t.Fatal("Failed to register:", err)
	}

	// Without the policy flag no credential pair is written.
	if _, err := env.store.RememberedLogin(); err != store.ErrNotFound {
		t.Errorf("credentials cached with persistent auth disabled: %v", err)
	}

	// And Init does not log anyone in.
	mgr2 := idmgr.New(&idmgr.Config{
		Backends: env.backends,
		Store:    env.store,
	})
	if err := mgr2.Init(ctx); err != nil {
		t.Fatal("Init failed:", err)
	}
	if mgr2.IsLoggedIn() {
		t.Error("Init logged in without persistent auth")
	}
}
