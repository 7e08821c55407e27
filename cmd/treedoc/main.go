// Command treedoc validates configuration documents against a schema file.
//
//	treedoc lint -s schema.yaml conf.yaml other.json
//	treedoc rules -s schema.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/treedoc/treedoc"
	"github.com/treedoc/treedoc/schemafile"
	docjson "github.com/treedoc/treedoc/source/json"
)

func main() {
	cmd := &cli.Command{
		Name:  "treedoc",
		Usage: "validate configuration documents against a schema",
		Commands: []*cli.Command{
			{
				Name:      "lint",
				Usage:     "validate documents against the schema",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "schema",
						Aliases:  []string{"s"},
						Usage:    "schema file to validate against",
						Required: true,
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "report failures only",
					},
				},
				Action: lint,
			},
			{
				Name:  "rules",
				Usage: "print the schema's rule tree",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "schema",
						Aliases:  []string{"s"},
						Usage:    "schema file to print",
						Required: true,
					},
				},
				Action: rules,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func lint(ctx context.Context, cmd *cli.Command) error {
	schema, err := schemafile.LoadFile(cmd.String("schema"))
	if err != nil {
		return err
	}
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("lint: no documents given", 2)
	}
	failures := 0
	for _, f := range files {
		if err := lintFile(schema, f); err != nil {
			failures++
			fmt.Fprintln(os.Stderr, err)
		} else if !cmd.Bool("quiet") {
			fmt.Printf("%s: ok\n", f)
		}
	}
	if failures > 0 {
		return cli.Exit(fmt.Sprintf("lint: %d of %d documents failed", failures, len(files)), 1)
	}
	return nil
}

func lintFile(schema *treedoc.Schema, filename string) error {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		raw, err := docjson.DecodeBytes(data)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		_, err = schema.Parse(raw, filename)
		return err
	}
	_, err := schema.ParseFile(filename)
	return err
}

func rules(ctx context.Context, cmd *cli.Command) error {
	schema, err := schemafile.LoadFile(cmd.String("schema"))
	if err != nil {
		return err
	}
	printRules(schema.Root())
	return nil
}

func printRules(r *treedoc.Rule) {
	for _, f := range r.Fields() {
		child := r.Child(f)
		fmt.Println(ruleLine(child))
		printRules(child)
	}
}

// ruleLine renders one rule as "path [type] flags  # desc".
func ruleLine(r *treedoc.Rule) string {
	var b strings.Builder
	b.WriteString(r.Path())
	if ts := r.Types(); len(ts) > 0 {
		fmt.Fprintf(&b, " [%s]", ts)
	}
	var flags []string
	if r.Optional() {
		flags = append(flags, "optional")
	}
	if r.NoFollow() {
		flags = append(flags, "nofollow")
	}
	if r.Default() != nil {
		flags = append(flags, fmt.Sprintf("default=%v", r.Default()))
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(flags, ", "))
	}
	if d := r.Desc(); d != "" {
		fmt.Fprintf(&b, "  # %s", d)
	}
	return b.String()
}
