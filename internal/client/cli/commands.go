package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/rpc"
	"golang.org/x/crypto/bcrypt"
)

const helpText = `Available commands:
  list                                  list users
  get <id>                              show one user
  create [username]                     create a user (password prompted)
  update [-name n] [-password] <id>     change username and/or password
  delete <id>                           delete a user
  verify <id>                           check a password against a user
  hash                                  print a bcrypt hash for the access file
  help, exit`

func (a *App) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(a.out, helpText)
		return nil
	case "hash":
		return a.hash()
	case "list", "l":
		return a.list(ctx)
	case "get":
		return a.withID(args, "get <id>", func(id string) error { return a.get(ctx, id) })
	case "create":
		if len(args) > 1 {
			return fmt.Errorf("%w: create [username]", errUsage)
		}
		username := ""
		if len(args) == 1 {
			username = args[0]
		} else {
			var err error
			if username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
				return err
			}
		}
		return a.create(ctx, username)
	case "update":
		return a.update(ctx, args)
	case "delete":
		return a.withID(args, "delete <id>", func(id string) error { return a.delete(ctx, id) })
	case "verify":
		return a.withID(args, "verify <id>", func(id string) error { return a.verify(ctx, id) })
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func (a *App) withID(args []string, usage string, fn func(id string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}
	return fn(args[0])
}

func printUser(w io.Writer, u rpc.User) {
	fmt.Fprintf(w, "id:       %s\nusername: %s\ncreated:  %s\nupdated:  %s\n",
		u.ID, u.Username, u.CreatedAt.Format(time.RFC3339), u.UpdatedAt.Format(time.RFC3339))
}

func (a *App) list(ctx context.Context) error {
	if err := a.ensureAuth(); err != nil {
		return err
	}
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "no users")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tCREATED\tUPDATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339), u.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func (a *App) get(ctx context.Context, id string) error {
	if err := a.ensureAuth(); err != nil {
		return err
	}
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	u, err := a.api.GetUser(ctx, id)
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

func (a *App) create(ctx context.Context, username string) error {
	if err := a.ensureAuth(); err != nil {
		return err
	}

	pw, err := GetPassword(a.out, "Password for new user")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	u, err := a.api.CreateUser(ctx, username, string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "created")
	printUser(a.out, u)
	return nil
}

// update accepts the id before or after its flags.
func (a *App) update(ctx context.Context, args []string) error {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "new username")
	changePassword := fs.Bool("password", false, "prompt for a new password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: update [-name n] [-password] <id>", errUsage)
	}
	if id == "" && fs.NArg() == 1 {
		id = fs.Arg(0)
	}
	if id == "" || (fs.NArg() > 0 && fs.Arg(0) != id) {
		return fmt.Errorf("%w: update [-name n] [-password] <id>", errUsage)
	}

	if err := a.ensureAuth(); err != nil {
		return err
	}

	var password string
	if *changePassword {
		pw, err := GetPassword(a.out, "New password")
		if err != nil {
			return err
		}
		if len(pw) == 0 {
			return fmt.Errorf("%w: new password must not be empty", errUsage)
		}
		password = string(pw)
		common.WipeByteArray(pw)
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	u, err := a.api.UpdateUser(ctx, id, *name, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "updated")
	printUser(a.out, u)
	return nil
}

func (a *App) delete(ctx context.Context, id string) error {
	if err := a.ensureAuth(); err != nil {
		return err
	}
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	deleted, err := a.api.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", deleted)
	return nil
}

func (a *App) verify(ctx context.Context, id string) error {
	if err := a.ensureAuth(); err != nil {
		return err
	}

	pw, err := GetPassword(a.out, "Password to check")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	ok, err := a.api.VerifyPassword(ctx, id, string(pw))
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(a.out, "password matches")
	} else {
		fmt.Fprintln(a.out, "password does not match")
	}
	return nil
}

// hash prints a bcrypt hash for an operator entry. It never contacts the server.
func (a *App) hash() error {
	pw, err := GetPassword(a.out, "Operator password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if len(pw) == 0 {
		return errors.New("empty password")
	}

	h, err := bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(h))
	return nil
}
