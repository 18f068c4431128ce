package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Root runs the interactive prompt until exit or end of input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "userdir admin CLI (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, "userdir> ")
		line, err := a.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			fmt.Fprintln(a.out)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd, args := parts[0], parts[1:]
		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(a.out, "Bye!")
			return
		}

		if err := a.execute(ctx, cmd, args); err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
