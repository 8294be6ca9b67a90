// Command webhdfs is a small shell over the WebHDFS REST API.
//
//	webhdfs [global flags] <command> [command flags] [args]
//
// Connection settings come from a YAML profile, then WEBHDFS_HOST,
// WEBHDFS_PORT and WEBHDFS_USER, then global flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs"
)

var log = logging.Logger("webhdfs-cli")

// errUsage signals a usage message was already printed.
var errUsage = errors.New("usage")

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	c := cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(ctx, os.Args[1:]))
}

func (c cli) run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("webhdfs", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	profilePath := fs.String("profile", "", "YAML profile (default $WEBHDFS_PROFILE or ~/.webhdfs.yaml)")
	host := fs.String("host", "", "NameNode host")
	port := fs.Int("port", 0, "NameNode HTTP port")
	user := fs.String("user", "", "user.name sent with every request")
	timeout := fs.Duration("connect-timeout", 0, "TCP connect timeout")
	logLevel := fs.String("log-level", "error", "log level (debug, info, warn, error)")
	fs.Usage = func() { c.usage(fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		c.usage(fs)
		return 2
	}
	if err := logging.SetLogLevelRegex("webhdfs.*", *logLevel); err != nil {
		fmt.Fprintf(c.stderr, "webhdfs: invalid log level: %v\n", err)
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(c.stderr, "webhdfs: unknown command %q\n", name)
		c.usage(fs)
		return 2
	}

	prof, err := loadProfile(*profilePath)
	if err != nil {
		fmt.Fprintf(c.stderr, "webhdfs: %v\n", err)
		return 1
	}
	if err := prof.applyEnv(); err != nil {
		fmt.Fprintf(c.stderr, "webhdfs: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			prof.Host = *host
		case "port":
			prof.Port = *port
		case "user":
			prof.User = *user
		case "connect-timeout":
			prof.ConnectTimeout = *timeout
		}
	})

	client, err := webhdfs.NewWithEndpoint(prof.endpoint(), prof.options()...)
	if err != nil {
		fmt.Fprintf(c.stderr, "webhdfs: %v\n", err)
		return 1
	}
	defer client.Close()
	log.Debugw("command", "name", name, "endpoint", client.Endpoint().String(), "user", prof.User)

	start := time.Now()
	err = cmd.run(ctx, c, client, fs.Args()[1:])
	log.Debugw("command done", "name", name, "elapsed", time.Since(start), "err", err)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(c.stderr, "webhdfs %s: %v\n", name, err)
		return 1
	}
}

func (c cli) usage(fs *flag.FlagSet) {
	fmt.Fprintln(c.stderr, "usage: webhdfs [flags] <command> [args]")
	fmt.Fprintln(c.stderr)
	fmt.Fprintln(c.stderr, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.stderr, "  %-9s %s\n", name, commands[name].synopsis)
	}
	fmt.Fprintln(c.stderr)
	fmt.Fprintln(c.stderr, "flags:")
	fs.PrintDefaults()
}
