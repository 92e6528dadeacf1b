package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/randalmurphal/reviewdesk/app"
	"github.com/randalmurphal/reviewdesk/config"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
)

// errUsage marks an error whose message has already been printed with usage.
var errUsage = errors.New("usage")

type command struct {
	name    string
	args    string
	summary string
	run     func(c *cli, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"login", "[--username EMAIL] [--password-stdin]", "sign in and store the credential", (*cli).login},
		{"logout", "", "forget the stored credential", (*cli).logout},
		{"whoami", "", "show the signed-in user, role and available actions", (*cli).whoami},
		{"inbox", "", "list the items visible to you", (*cli).inbox},
		{"select", "ID", "select an item for later commands", (*cli).selectItem},
		{"approve", "[--comment TEXT] [ID]", "approve an item (default: the selected one)", (*cli).approve},
		{"reject", "[--comment TEXT] [ID]", "reject an item (default: the selected one)", (*cli).reject},
		{"audit", "--image PATH [ID]", "audit an image against an item's brand manual", (*cli).auditItem},
		{"audit-brand", "--image PATH BRAND_ID", "audit an image against a brand manual", (*cli).auditBrand},
		{"history", "[--item ID] [--type KIND] [QUERY]", "show decisions and audits made from this machine", (*cli).history},
		{"tui", "", "open the interactive review desk", (*cli).tui},
		{"config", "show|set|unset|path ...", "inspect or change configuration", (*cli).config},
	}
}

// flagKeys are the configuration keys that can be overridden by global flags.
var flagKeys = []struct {
	key   string
	usage string
}{
	{config.KeyAPIBase, "backend base URL"},
	{config.KeyAuthURL, "token endpoint for login"},
	{config.KeyToken, "bearer token to use instead of the stored login"},
	{config.KeyStateDir, "directory for the credential and selection"},
	{config.KeyLogLevel, "log level: debug, info, warn or error"},
	{config.KeyLogFormat, "log format: text or json"},
}

type cli struct {
	in       *bufio.Reader
	stdout   io.Writer
	stderr   io.Writer
	resolved *config.Resolved
	settings config.Settings
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{in: bufio.NewReader(stdin), stdout: stdout, stderr: stderr}
	if err := c.run(ctx, args); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			c.printError(err)
		}
		return 1
	}
	return 0
}

func (c *cli) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = c.usage
	values := make(map[string]*string, len(flagKeys))
	for _, f := range flagKeys {
		values[f.key] = fs.String(strings.ReplaceAll(f.key, "_", "-"), "", f.usage)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		c.usage()
		return errUsage
	}

	overrides := make(map[string]string)
	for key, v := range values {
		if *v != "" {
			overrides[key] = *v
		}
	}
	c.resolved = config.DefaultResolver().ResolveWithFlags(overrides)

	name, rest := fs.Arg(0), fs.Args()[1:]
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(c, ctx, rest)
		}
	}
	fmt.Fprintf(c.stderr, "unknown command %q\n\n", name)
	c.usage()
	return errUsage
}

func (c *cli) usage() {
	fmt.Fprintf(c.stderr, "Usage: %s [flags] COMMAND [args]\n\nCommands:\n", config.AppName)
	for _, cmd := range commands {
		fmt.Fprintf(c.stderr, "  %-12s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(c.stderr, "\nFlags:\n")
	for _, f := range flagKeys {
		fmt.Fprintf(c.stderr, "  --%-11s %s\n", strings.ReplaceAll(f.key, "_", "-"), f.usage)
	}
}

func (c *cli) printError(err error) {
	ce := rderrors.Describe(err, rderrors.WithServerURL(c.settings.APIBase))
	if ce == nil {
		return
	}
	fmt.Fprintf(c.stderr, "Error: %s\n", ce.Error())
}

// flags returns a flag set for a subcommand that prints its own usage line.
func (c *cli) flags(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: %s %s %s\n", config.AppName, name, args)
		fs.PrintDefaults()
	}
	return fs
}

// open wires the application from the resolved configuration.
func (c *cli) open() (*app.App, error) {
	s, err := config.Load(c.resolved)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	c.settings = s
	return app.Open(s, s.NewLogger(c.stderr))
}

// signedIn opens the application and restores the session. It fails when
// there is no credential to restore.
func (c *cli) signedIn(ctx context.Context, op string) (*app.App, error) {
	a, err := c.open()
	if err != nil {
		return nil, err
	}
	if _, err := a.Restore(ctx); err != nil {
		return nil, err
	}
	if !a.Desk.State().SignedIn {
		return nil, rderrors.NewNotAuthenticatedError(op)
	}
	return a, nil
}

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.stdout, label)
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
