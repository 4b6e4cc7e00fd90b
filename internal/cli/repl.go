package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to. The
// real App satisfies it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	AddUser(ctx context.Context) error
	DeleteUser(ctx context.Context) error
	ListUsers(ctx context.Context) error
	Upload(ctx context.Context) error
	Download(ctx context.Context) error
	List(ctx context.Context) error
	Delete(ctx context.Context) error
	Tools(ctx context.Context) error
	Process(ctx context.Context) error
	Outputs(ctx context.Context) error
	GetOutput(ctx context.Context) error
	DeleteOutput(ctx context.Context) error
}

// runREPL reads a command per line and dispatches to a. Handlers report
// their own errors; the loop only cares about I/O. It exits on EOF or
// on "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fm> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, upload, download, delete, tools, process, outputs, getoutput, deloutput, adduser, deluser, users, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "adduser":
			_ = a.AddUser(ctx)

		case "deluser":
			_ = a.DeleteUser(ctx)

		case "users":
			_ = a.ListUsers(ctx)

		case "upload":
			_ = a.Upload(ctx)

		case "download":
			_ = a.Download(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "tools":
			_ = a.Tools(ctx)

		case "process":
			_ = a.Process(ctx)

		case "outputs":
			_ = a.Outputs(ctx)

		case "getoutput":
			_ = a.GetOutput(ctx)

		case "deloutput":
			_ = a.DeleteOutput(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
