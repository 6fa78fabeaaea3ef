package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

type execIface interface {
	Show(ctx context.Context) error
	Done(ctx context.Context, ids []string) error
	Undo(ctx context.Context, ids []string) error
	Clear(ctx context.Context) error
}

const helpText = "Available commands: show, done <patientId>..., undo <patientId>..., clear, exit"

func formatSet(set models.DoneSet) string {
	if len(set) == 0 {
		return "seen: (none)"
	}
	return "seen: " + strings.Join(set, ", ")
}

// runREPL reads commands until EOF, "exit" or "quit". Command errors are
// printed and the loop continues.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "show", "s":
			err = a.Show(ctx)
		case "done", "d":
			if len(args) == 0 {
				printlnFn("usage: done <patientId>...")
				continue
			}
			err = a.Done(ctx, args)
		case "undo", "u":
			if len(args) == 0 {
				printlnFn("usage: undo <patientId>...")
				continue
			}
			err = a.Undo(ctx, args)
		case "clear":
			err = a.Clear(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err)
		}
	}
}
