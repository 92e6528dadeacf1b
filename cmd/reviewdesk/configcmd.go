package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/randalmurphal/reviewdesk/config"
)

func (c *cli) config(_ context.Context, args []string) error {
	if len(args) == 0 {
		c.configUsage()
		return errUsage
	}
	switch args[0] {
	case "show":
		return c.configShow(args[1:])
	case "set":
		return c.configSet(args[1:])
	case "unset":
		return c.configUnset(args[1:])
	case "path":
		return c.configPath(args[1:])
	default:
		c.configUsage()
		return errUsage
	}
}

func (c *cli) configUsage() {
	fmt.Fprintf(c.stderr, `Usage:
  %[1]s config show
  %[1]s config set [--local] KEY VALUE
  %[1]s config unset KEY
  %[1]s config path
`, config.AppName)
}

func (c *cli) configShow(args []string) error {
	if err := c.flags("config show", "").Parse(args); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	keys := c.resolved.Keys()
	slices.Sort(keys)
	for _, key := range keys {
		value, src := c.resolved.GetWithSource(key)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key, maskValue(key, value), src)
	}
	return tw.Flush()
}

// maskValue hides all but the tail of secrets.
func maskValue(key, value string) string {
	switch key {
	case config.KeyToken, config.KeySlackWebhookURL, config.KeyNotifyWebhookURL:
	default:
		return value
	}
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

func (c *cli) configSet(args []string) error {
	fs := c.flags("config set", "[--local] KEY VALUE")
	local := fs.Bool("local", false, "write the repository config instead of the global one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	key, value := fs.Arg(0), fs.Arg(1)
	saver := config.DefaultSaver()
	if *local {
		root := config.DefaultResolver().GitRoot()
		if root == "" {
			return fmt.Errorf("config set --local: not inside a git repository")
		}
		if err := saver.SaveLocal(root, key, value); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Set %s in %s.\n", key, config.LocalConfigName)
		return nil
	}
	if err := saver.SaveGlobal(key, value); err != nil {
		return err
	}
	return c.printGlobalPath(c.stdout, "Set "+key+" in ")
}

func (c *cli) configUnset(args []string) error {
	fs := c.flags("config unset", "KEY")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	if err := config.DefaultSaver().DeleteGlobalKey(fs.Arg(0)); err != nil {
		return err
	}
	return c.printGlobalPath(c.stdout, "Removed "+fs.Arg(0)+" from ")
}

func (c *cli) configPath(args []string) error {
	if err := c.flags("config path", "").Parse(args); err != nil {
		return err
	}
	r := config.DefaultResolver()
	fmt.Fprintf(c.stdout, "global: %s\n", r.GlobalPath())
	if p := r.LocalPath(); p != "" {
		fmt.Fprintf(c.stdout, "local:  %s\n", p)
	}
	return nil
}

func (c *cli) printGlobalPath(w io.Writer, prefix string) error {
	path, err := config.DefaultSaver().GlobalPath()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s%s.\n", prefix, path)
	return nil
}
