package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) Decks(ctx context.Context) error { return f.record("decks", nil) }
func (f *fakeExec) Install(ctx context.Context, args []string) error {
	return f.record("install", args)
}
func (f *fakeExec) Update(ctx context.Context, args []string) error {
	return f.record("update", args)
}
func (f *fakeExec) Remove(ctx context.Context, args []string) error {
	return f.record("remove", args)
}
func (f *fakeExec) Check(ctx context.Context) error { return f.record("check", nil) }
func (f *fakeExec) Sync(ctx context.Context, args []string) error {
	return f.record("sync", args)
}
func (f *fakeExec) Rollback(ctx context.Context, args []string) error {
	return f.record("rollback", args)
}
func (f *fakeExec) History(ctx context.Context, args []string) error {
	return f.record("history", args)
}
func (f *fakeExec) Changelog(ctx context.Context, args []string) error {
	return f.record("changelog", args)
}
func (f *fakeExec) Protect(ctx context.Context, args []string) error {
	return f.record("protect", args)
}

func muteOutput(t *testing.T) {
	t.Helper()
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })
}

func TestRunREPL_CommandDispatch(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"decks",
		"check",
		"sync all",
		"rollback deck-1 guid-9 1.2.0",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"login", "decks", "check", "sync", "rollback"}
	if len(exec.calls) != len(wantOrder) {
		t.Fatalf("calls mismatch: got %v, want %v", exec.calls, wantOrder)
	}
	for i, want := range wantOrder {
		if exec.calls[i] != want {
			t.Fatalf("commands order mismatch: got %v, want %v", exec.calls, wantOrder)
		}
	}

	// args reach the handlers intact
	if got := exec.args[3]; len(got) != 1 || got[0] != "all" {
		t.Fatalf("sync args: %v", got)
	}
	if got := exec.args[4]; len(got) != 3 || got[2] != "1.2.0" {
		t.Fatalf("rollback args: %v", got)
	}
}

func TestRunREPL_BlankLinesAndQuit(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader("\n   \nquit\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_EOFEndsLoop(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader("decks\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if len(exec.calls) != 1 || exec.calls[0] != "decks" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
