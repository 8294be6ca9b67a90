package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs"
)

type command struct {
	synopsis string
	run      func(ctx context.Context, c cli, client *webhdfs.Client, args []string) error
}

var commands = map[string]command{
	"put":      {"upload a local file (- for stdin)", cmdPut},
	"append":   {"append a local file (- for stdin)", cmdAppend},
	"cat":      {"print a remote file", cmdCat},
	"mkdir":    {"create a directory and its parents", cmdMkdir},
	"mv":       {"rename a file or directory", cmdMv},
	"rm":       {"delete a file or directory", cmdRm},
	"stat":     {"show the status of a path", cmdStat},
	"ls":       {"list a directory", cmdLs},
	"summary":  {"show the content summary of a path", cmdSummary},
	"checksum": {"show the checksum of a file", cmdChecksum},
	"home":     {"print the home directory", cmdHome},
	"chmod":    {"set the octal permission of a path", cmdChmod},
	"chown":    {"set owner and optionally group", cmdChown},
	"setrep":   {"set the replication factor of a file", cmdSetrep},
	"touch":    {"set modification and access times", cmdTouch},
}

// commandArgs holds the argument synopsis printed by each usage message.
var commandArgs = map[string]string{
	"put":      "[-overwrite] [-replication n] [-permission p] <local> <remote>",
	"append":   "<local> <remote>",
	"cat":      "[-offset n] [-length n] <remote>",
	"mkdir":    "[-permission p] <remote>",
	"mv":       "<src> <dst>",
	"rm":       "[-r] <remote>",
	"stat":     "<remote>",
	"ls":       "[-json] <remote>",
	"summary":  "<remote>",
	"checksum": "<remote>",
	"home":     "",
	"chmod":    "<mode> <remote>",
	"chown":    "<owner[:group]> <remote>",
	"setrep":   "<n> <remote>",
	"touch":    "[-m time] [-a time] <remote>",
}

// flags builds a FlagSet for a subcommand whose usage lists its arguments.
func flags(c cli, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "usage: webhdfs %s %s\n", name, commandArgs[name])
		fs.PrintDefaults()
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if fs.NArg() != want {
		fs.Usage()
		return nil, errUsage
	}
	return fs.Args(), nil
}

func cmdPut(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	fs := flags(c, "put")
	overwrite := fs.Bool("overwrite", false, "replace an existing file")
	replication := fs.Int("replication", 0, "replication factor")
	permission := fs.String("permission", "", "octal permission")
	rest, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	data, err := c.readLocal(rest[0])
	if err != nil {
		return err
	}
	opts := &webhdfs.CreateOptions{Replication: *replication, Permission: *permission}
	if *overwrite {
		opts.Overwrite = overwrite
	}
	ok, err := client.Create(ctx, rest[1], data, opts)
	return check(ok, err, rest[1])
}

func cmdAppend(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "append"), args, 2)
	if err != nil {
		return err
	}
	data, err := c.readLocal(rest[0])
	if err != nil {
		return err
	}
	ok, err := client.Append(ctx, rest[1], data, 0)
	return check(ok, err, rest[1])
}

func cmdCat(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	fs := flags(c, "cat")
	offset := fs.Int64("offset", 0, "starting byte")
	length := fs.Int64("length", 0, "bytes to read (0 reads to the end)")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	data, err := client.Open(ctx, rest[0], &webhdfs.OpenOptions{Offset: *offset, Length: *length})
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(data)
	return err
}

func cmdMkdir(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	fs := flags(c, "mkdir")
	permission := fs.String("permission", "", "octal permission (default 755)")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	ok, err := client.Mkdir(ctx, rest[0], *permission)
	return check(ok, err, rest[0])
}

func cmdMv(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "mv"), args, 2)
	if err != nil {
		return err
	}
	ok, err := client.Mv(ctx, rest[0], rest[1])
	return check(ok, err, rest[0])
}

func cmdRm(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	fs := flags(c, "rm")
	recursive := fs.Bool("r", false, "delete directories recursively")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	ok, err := client.Delete(ctx, rest[0], *recursive)
	return check(ok, err, rest[0])
}

func cmdStat(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "stat"), args, 1)
	if err != nil {
		return err
	}
	st, err := client.FileStatus(ctx, rest[0])
	if err != nil {
		return err
	}
	renderStatus(c.stdout, rest[0], st)
	return nil
}

func cmdLs(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	fs := flags(c, "ls")
	asJSON := fs.Bool("json", false, "print the raw LISTSTATUS document")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	if *asJSON {
		raw, err := client.Ls(ctx, rest[0])
		if err != nil {
			return err
		}
		return c.printJSON(raw)
	}
	entries, err := client.ListStatus(ctx, rest[0])
	if err != nil {
		return err
	}
	renderListing(c.stdout, entries)
	return nil
}

func cmdSummary(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "summary"), args, 1)
	if err != nil {
		return err
	}
	cs, err := client.ContentSummary(ctx, rest[0])
	if err != nil {
		return err
	}
	renderSummary(c.stdout, cs)
	return nil
}

func cmdChecksum(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "checksum"), args, 1)
	if err != nil {
		return err
	}
	sum, err := client.FileChecksum(ctx, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s\t%s\t%s\n", rest[0], sum.Algorithm, sum.Bytes)
	return nil
}

func cmdHome(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	if _, err := parse(flags(c, "home"), args, 0); err != nil {
		return err
	}
	home, err := client.HomeDir(ctx)
	if err != nil {
		return err
	}
	if home == "" {
		return errors.New("no home directory reported")
	}
	fmt.Fprintln(c.stdout, home)
	return nil
}

func cmdChmod(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "chmod"), args, 2)
	if err != nil {
		return err
	}
	ok, err := client.Chmod(ctx, rest[1], rest[0])
	return check(ok, err, rest[1])
}

func cmdChown(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "chown"), args, 2)
	if err != nil {
		return err
	}
	owner, group, _ := strings.Cut(rest[0], ":")
	ok, err := client.Chown(ctx, rest[1], owner, group)
	return check(ok, err, rest[1])
}

func cmdSetrep(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	rest, err := parse(flags(c, "setrep"), args, 2)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("invalid replication %q", rest[0])
	}
	ok, err := client.SetReplication(ctx, rest[1], n)
	return check(ok, err, rest[1])
}

func cmdTouch(ctx context.Context, c cli, client *webhdfs.Client, args []string) error {
	fs := flags(c, "touch")
	mtime := fs.String("m", "", "modification time (RFC 3339, epoch millis or \"now\")")
	atime := fs.String("a", "", "access time (RFC 3339, epoch millis or \"now\")")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	var opts webhdfs.TouchOptions
	if opts.ModificationTime, err = parseTime(*mtime); err != nil {
		return err
	}
	if opts.AccessTime, err = parseTime(*atime); err != nil {
		return err
	}
	ok, err := client.Touch(ctx, rest[0], &opts)
	return check(ok, err, rest[0])
}

// check turns a false outcome into an error.
func check(ok bool, err error, path string) error {
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, webhdfs.ErrRequestFailed)
	}
	return nil
}

func (c cli) readLocal(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(name)
}

func (c cli) printJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return time.Time{}, nil
	case raw == "now":
		return time.Now(), nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", raw)
	}
	return t, nil
}
