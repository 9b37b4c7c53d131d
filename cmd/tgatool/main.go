package main

import (
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/madebr/libtga"
	"github.com/urfave/cli/v2"
)

const defaultDB = "tgatool.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// newTools returns tools without a catalog, for the commands that only work
// on individual files.
func newTools(c *cli.Context) *libtga.Tools {
	return libtga.New(nil, newLogger(c))
}

func withCatalog(c *cli.Context, fn func(*libtga.Tools, *libtga.Catalog) error) error {
	db, err := libtga.NewCatalog(c.String("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer db.Close()

	t := libtga.New(db, newLogger(c))
	t.Workers = c.Int("workers")

	if err := fn(t, db); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func twoArgs(c *cli.Context, fn func(src, dst string) error) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	if err := fn(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "tgatool"
	app.Usage = "Truevision TGA image utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"TGATOOL_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"TGATOOL_WORKERS"},
			Value:   10,
			Usage:   "number of files indexed concurrently",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "dump",
			Usage:     "Print the header of each image",
			ArgsUsage: "FILE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t := newTools(c)
				for _, file := range c.Args().Slice() {
					if c.NArg() > 1 {
						fmt.Fprintf(c.App.Writer, "%s:\n", file)
					}
					if err := t.Dump(c.App.Writer, file); err != nil {
						return cli.Exit(err, 1)
					}
				}

				return nil
			},
		},
		{
			Name:      "encode",
			Usage:     "Re-write an image with run-length encoded pixel data",
			ArgsUsage: "SOURCE DESTINATION",
			Action: func(c *cli.Context) error {
				return twoArgs(c, func(src, dst string) error {
					return newTools(c).Copy(src, dst, true)
				})
			},
		},
		{
			Name:      "decode",
			Usage:     "Re-write an image with uncompressed pixel data",
			ArgsUsage: "SOURCE DESTINATION",
			Action: func(c *cli.Context) error {
				return twoArgs(c, func(src, dst string) error {
					return newTools(c).Copy(src, dst, false)
				})
			},
		},
		{
			Name:      "convert",
			Usage:     "Re-write a TGA, PNG, GIF or JPEG image as a TGA image",
			ArgsUsage: "SOURCE DESTINATION",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "rle",
					Usage: "run-length encode the pixel data",
				},
			},
			Action: func(c *cli.Context) error {
				return twoArgs(c, func(src, dst string) error {
					return newTools(c).Convert(src, dst, c.Bool("rle"))
				})
			},
		},
		{
			Name:      "unmap",
			Usage:     "Convert a color mapped image to truecolor",
			ArgsUsage: "SOURCE DESTINATION",
			Action: func(c *cli.Context) error {
				return twoArgs(c, newTools(c).Unmap)
			},
		},
		{
			Name:      "quantize",
			Usage:     "Convert a truecolor image to a color mapped one",
			ArgsUsage: "SOURCE DESTINATION",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "colors",
					Aliases: []string{"c"},
					Value:   256,
					Usage:   "maximum number of colors",
				},
				&cli.BoolFlag{
					Name:  "rle",
					Usage: "run-length encode the result",
				},
			},
			Action: func(c *cli.Context) error {
				return twoArgs(c, func(src, dst string) error {
					return newTools(c).Quantize(src, dst, libtga.QuantizeOptions{
						Colors: c.Int("colors"),
						Encode: c.Bool("rle"),
					})
				})
			},
		},
		{
			Name:      "check",
			Usage:     "Sanity check images",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "skip-data",
					Usage: "do not decode the pixel data",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t := newTools(c)
				opts := libtga.CheckOptions{SkipData: c.Bool("skip-data")}

				var failed int
				for _, file := range c.Args().Slice() {
					r, err := t.Check(file, opts)
					if err != nil {
						return cli.Exit(err, 1)
					}
					fmt.Fprintf(c.App.Writer, "%s:\n", file)
					if _, err := r.WriteTo(c.App.Writer); err != nil {
						return cli.Exit(err, 1)
					}
					failed += r.Failed()
				}

				if failed > 0 {
					return cli.Exit("", 1)
				}

				return nil
			},
		},
		{
			Name:      "index",
			Usage:     "Scan a directory and catalog the images found",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				return withCatalog(c, func(t *libtga.Tools, _ *libtga.Catalog) error {
					return t.Index(c.Args().First())
				})
			},
		},
		{
			Name:      "list",
			Usage:     "List cataloged images",
			ArgsUsage: "[CRC]",
			Action: func(c *cli.Context) error {
				return withCatalog(c, func(_ *libtga.Tools, db *libtga.Catalog) error {
					var (
						entries []libtga.Entry
						err     error
					)
					if c.NArg() > 0 {
						entries, err = db.FindByCRC(c.Args().First())
					} else {
						entries, err = db.List()
					}
					if err != nil {
						return err
					}

					for _, e := range entries {
						fmt.Fprintf(c.App.Writer, "%s\t%s\t%d\t%dx%dx%d\t%s\n", e.CRC, e.Type, e.Size, e.Width, e.Height, e.Depth, e.Path)
					}

					return nil
				})
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
