package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/userdir/internal/client/client"
	"github.com/dmitrijs2005/userdir/internal/client/config"
	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/rpc"
)

// DirectoryAPI is the server surface the commands use.
type DirectoryAPI interface {
	ListUsers(ctx context.Context) ([]rpc.User, error)
	GetUser(ctx context.Context, id string) (rpc.User, error)
	CreateUser(ctx context.Context, username, password string) (rpc.User, error)
	UpdateUser(ctx context.Context, id, username, password string) (rpc.User, error)
	DeleteUser(ctx context.Context, id string) (string, error)
	VerifyPassword(ctx context.Context, id, password string) (bool, error)
}

// Authenticator receives the caller's credentials before the first call.
type Authenticator interface {
	SetBasicAuth(username, password string)
	SetBearerToken(token string)
}

var errUsage = errors.New("usage")

type App struct {
	config   *config.Config
	api      DirectoryAPI
	auth     Authenticator
	authDone bool
	reader   *bufio.Reader
	out      io.Writer
	closer   io.Closer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewDirectoryClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	app := newApp(c, apiClient, apiClient, bufio.NewReader(os.Stdin), os.Stdout)
	app.closer = apiClient
	return app, nil
}

func newApp(c *config.Config, api DirectoryAPI, auth Authenticator, reader *bufio.Reader, out io.Writer) *App {
	return &App{config: c, api: api, auth: auth, reader: reader, out: out}
}

// ensureAuth hands credentials to the client once, prompting for the
// operator password if needed.
func (a *App) ensureAuth() error {
	if a.authDone {
		return nil
	}

	switch {
	case a.config.BearerToken != "":
		a.auth.SetBearerToken(a.config.BearerToken)
	case a.config.Operator != "":
		pw, err := GetPassword(a.out, "Password for "+a.config.Operator)
		if err != nil {
			return err
		}
		a.auth.SetBasicAuth(a.config.Operator, string(pw))
		common.WipeByteArray(pw)
	default:
		return fmt.Errorf("%w: no operator (-u) or token (-k) given", client.ErrUnauthorized)
	}

	a.authDone = true
	return nil
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// Run executes the command from the command line, or starts the prompt when
// there is none.
func (a *App) Run(ctx context.Context) error {
	if a.closer != nil {
		defer a.closer.Close()
	}

	if len(a.config.Args) == 0 {
		a.Root(ctx)
		return nil
	}
	return a.execute(ctx, a.config.Args[0], a.config.Args[1:])
}
