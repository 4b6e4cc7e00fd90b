package cli

import (
	"bufio"
	"context"
	"os"
)

type App struct {
	config   *Config
	client   *Client
	userName string
	reader   *bufio.Reader
}

func NewApp(c *Config) (*App, error) {
	return &App{
		config: c,
		client: NewClient(c.ServerEndpointAddr),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.userName
	}
	return "not logged in"
}

func (a *App) Run(ctx context.Context) {
	// The scanner wraps the same reader the prompts use, so no input is
	// lost between the two.
	scanner := bufio.NewScanner(a.reader)
	runREPL(ctx, a, a.status, scanner)
}
