package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hard75/internal/backup"
	"github.com/julianstephens/hard75/internal/challenge"
	"github.com/julianstephens/hard75/internal/lock"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/session"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/storage/sqlite"
	"github.com/julianstephens/hard75/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Store   storage.Provider
	Clock   utils.Clock
	Out     io.Writer
	Err     io.Writer
	Confirm func(title string) (bool, error)

	engine *challenge.Engine
	cache  *session.Cache
	lock   *lock.Lock

	mu       sync.Mutex
	failures []error
}

func NewContext(store storage.Provider, clock utils.Clock) *Context {
	return &Context{
		Store:   store,
		Clock:   clock,
		Out:     os.Stdout,
		Err:     os.Stderr,
		Confirm: ConfirmPrompt,
	}
}

// ConfirmPrompt asks a yes/no question on the terminal.
func ConfirmPrompt(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation aborted: %w", err)
	}
	return ok, nil
}

// IsSQLite reports whether the store is a local database file.
func (c *Context) IsSQLite() bool {
	_, ok := c.Store.(*sqlite.Store)
	return ok
}

// Engine returns the challenge engine over the context's store.
func (c *Context) Engine() *challenge.Engine {
	if c.engine == nil {
		c.engine = challenge.New(c.Store, c.Clock)
	}
	return c.engine
}

// Session takes the writer lock, evaluates the challenge against today and
// returns the loaded session cache. Later calls return the same cache.
func (c *Context) Session(ctx context.Context) (*session.Cache, error) {
	if c.cache != nil {
		return c.cache, nil
	}
	if c.IsSQLite() && c.lock == nil {
		l, err := lock.Acquire(lock.PathFor(c.Store.GetConfigPath()))
		if err != nil {
			return nil, err
		}
		c.lock = l
	}

	cache := session.New(c.Engine(), session.WithFailureHandler(c.recordFailure))
	if err := cache.Init(ctx); err != nil {
		cache.Close()
		return nil, err
	}
	c.cache = cache
	return cache, nil
}

func (c *Context) recordFailure(err error) {
	logger.Error("Background write failed", "error", err)
	c.mu.Lock()
	c.failures = append(c.failures, err)
	c.mu.Unlock()
}

// Settle waits for queued writes and returns any that failed since the
// last call.
func (c *Context) Settle() error {
	if c.cache != nil {
		c.cache.Flush()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := errors.Join(c.failures...)
	c.failures = nil
	return err
}

// Close drains the session, releases the writer lock and closes the store.
func (c *Context) Close() error {
	var errs []error
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, err)
		}
		c.cache = nil
	}
	if err := c.lock.Release(); err != nil {
		errs = append(errs, err)
	}
	c.lock = nil
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PerformAutomaticBackup creates a backup of a SQLite database and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if !c.IsSQLite() {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}
