// Converts social activity documents between formats.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/snarfed/activitystreams-unofficial/convert"
	"github.com/snarfed/activitystreams-unofficial/convert/fetch"
	"github.com/snarfed/activitystreams-unofficial/convert/telemetry"
)

const version = "0.1.0"

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:    "activitystreams",
		Usage:   "convert social activity documents between formats",
		Version: version,
		Reader:  stdin,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Log trace messages",
			},
		},
		Commands: []*cli.Command{
			convertCommand(),
			formatsCommand(),
		},
		After: func(c *cli.Context) error {
			telemetry.LogCounters()
			return nil
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a document read from FILE, or stdin",
		ArgsUsage: "[FILE|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "input `FORMAT`, or auto to detect it",
				Value: "auto",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "output `FORMAT`",
				Value: string(convert.CanonicalJSON),
			},
			&cli.BoolFlag{
				Name:  "fetch",
				Usage: "follow author links over HTTP",
			},
			&cli.BoolFlag{
				Name:  "no-reader",
				Usage: "write atom locations as GeoRSS instead of into the content",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "feed title",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "resolve relative html links against `URL`",
			},
		},
		Action: runConvert,
	}
}

func formatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "List supported formats",
		Action: func(c *cli.Context) error {
			for _, f := range convert.Formats {
				direction := "read, write"
				if !f.CanParse() {
					direction = "write"
				}
				fmt.Fprintf(c.App.Writer, "%-17s %-28s %s\n", f, f.ContentType(), direction)
			}
			return nil
		},
	}
}

func runConvert(c *cli.Context) error {
	cfg, err := convert.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	telemetry.SetTrace(cfg.Log.Trace || c.Bool("trace"))

	opts := cfg.Options()
	if c.Bool("fetch") {
		opts.FetchAuthor = true
	}
	if c.Bool("no-reader") {
		opts.Reader = false
	}
	if c.IsSet("title") {
		opts.Title = c.String("title")
	}
	if c.IsSet("base-url") {
		opts.BaseURL = c.String("base-url")
	}
	if opts.FetchAuthor {
		client := fetch.NewClient(cfg.FetchConfig())
		defer client.Close()
		opts.Fetch = client.Fetch
	}

	name := c.Args().First()
	input, err := readInput(c.App.Reader, name)
	if err != nil {
		return err
	}

	var from convert.Format
	if c.String("from") == "auto" {
		if from, err = convert.Detect(input); err != nil {
			return err
		}
		telemetry.Trace("detected %s input", from)
	} else if from, err = convert.ParseFormat(c.String("from")); err != nil {
		return err
	}
	to, err := convert.ParseFormat(c.String("to"))
	if err != nil {
		return err
	}

	out, warnings, err := convert.Convert(input, from, to, opts)
	for _, w := range warnings {
		telemetry.Warning(w.Path, "%s", w.Message)
	}
	if err != nil {
		return err
	}
	telemetry.Increment("converted", 1)

	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return b, nil
}

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		telemetry.Error(err, "activitystreams failed")
		os.Exit(1)
	}
}
