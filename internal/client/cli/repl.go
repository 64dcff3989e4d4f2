package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Connect(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Fetch(ctx context.Context, args []string) error
	RunScript(ctx context.Context, args []string) error
	Prove(ctx context.Context, args []string) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop. It reads a line from the
// provided scanner, parses the first token as the command, and dispatches to
// methods on 'a'. Unknown commands are reported back to the user. The loop
// exits on scanner EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are printed and the loop continues;
// nothing here is fatal.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cs> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: connect, share, (l)ist, fetch, run, prove, status, exit")
			printlnFn("  connect <address>                attach a wallet")
			printlnFn("  share <path> [policy]            upload and announce a file; policy: balance | time:<seconds> | nft:<contract>")
			printlnFn("  fetch <cid>                      download (and decrypt) by content id")
			printlnFn("  run <cid> [input files...]       execute a shared script in the sandbox")
			printlnFn("  prove [eml file]                 show attestation instructions / submit the email")

		case "connect":
			err = a.Connect(ctx, args)

		case "share":
			err = a.Share(ctx, args)

		case "l", "list":
			err = a.List(ctx)

		case "fetch":
			err = a.Fetch(ctx, args)

		case "run":
			err = a.RunScript(ctx, args)

		case "prove":
			err = a.Prove(ctx, args)

		case "status":
			err = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
