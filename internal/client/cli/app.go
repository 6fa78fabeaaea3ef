package cli

import (
	"bufio"
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/client/client"
	"github.com/hamarchia/ClinicSystem/internal/client/config"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

var ErrNotConnected = errors.New("not connected to presence service")

type watchStream interface {
	Recv() (models.DoneSet, error)
	Update(ids models.DoneSet) error
}

type openFunc func(ctx context.Context) (watchStream, error)

type App struct {
	config *config.Config
	client *client.GRPCClient
	logger logging.Logger
	open   openFunc

	mu      sync.Mutex
	current models.DoneSet
	stream  watchStream
}

func NewApp(c *config.Config, l logging.Logger) (*App, error) {
	cl, err := client.NewPresenceClient(c.ServerEndpointAddr, c.AccessToken)
	if err != nil {
		return nil, err
	}

	a := &App{config: c, client: cl, logger: l.With("module", "desk")}
	a.open = func(ctx context.Context) (watchStream, error) {
		return cl.Watch(ctx)
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.client.Close()

	printlnFn("Clinic desk (type 'help' for commands)")

	go a.watch(ctx)

	runREPL(ctx, a, bufio.NewScanner(os.Stdin))
}

// watch keeps a presence stream open until ctx ends, reconnecting after
// ReconnectInterval. An auth failure stops it for good.
func (a *App) watch(ctx context.Context) {
	for {
		err := a.session(ctx)
		a.setStream(nil)

		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, client.ErrUnauthorized) {
			a.logger.Error(ctx, "presence stream rejected", "error", err)
			return
		}
		a.logger.Warn(ctx, "presence stream closed, reconnecting", "error", err, "in", a.config.ReconnectInterval)

		select {
		case <-time.After(a.config.ReconnectInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) session(ctx context.Context) error {
	stream, err := a.open(ctx)
	if err != nil {
		return err
	}
	a.setStream(stream)

	for {
		set, err := stream.Recv()
		if err != nil {
			return err
		}
		printlnFn(formatSet(set))
		a.mu.Lock()
		a.current = set
		a.mu.Unlock()
	}
}

func (a *App) setStream(s watchStream) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stream = s
}

// Current returns the last done-set received from the server.
func (a *App) Current() models.DoneSet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.current)
}

func (a *App) send(next models.DoneSet) error {
	a.mu.Lock()
	stream := a.stream
	a.mu.Unlock()

	if stream == nil {
		return ErrNotConnected
	}
	return stream.Update(next)
}

func (a *App) Show(context.Context) error {
	printlnFn(formatSet(a.Current()))
	return nil
}

// Done marks ids as seen on top of the current done-set.
func (a *App) Done(_ context.Context, ids []string) error {
	return a.send(append(a.Current(), ids...))
}

// Undo removes ids from the current done-set.
func (a *App) Undo(_ context.Context, ids []string) error {
	next := slices.DeleteFunc(a.Current(), func(id string) bool {
		return slices.Contains(ids, id)
	})
	return a.send(next)
}

func (a *App) Clear(context.Context) error {
	return a.send(models.DoneSet{})
}
