package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-runewidth"

	"salaryprep/internal/config"
	"salaryprep/internal/listener"
	"salaryprep/internal/logger"
	"salaryprep/internal/pipeline"
	"salaryprep/internal/storage"
	"salaryprep/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	must(err)
	defer func() { _ = log.Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	processor := pipeline.NewProcessingService(db, cfg, log)

	cmd := os.Args[1]
	switch cmd {
	case "preprocess":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "dataset .csv|.xlsx")
		reference := fs.String("reference", "", "reference table .csv|.xlsx|.html (default REFERENCE_PATH)")
		output := fs.String("output", "", "output .xlsx|.csv")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		res, err := processor.RunPreprocess(*input, *reference, *output)
		must(err)
		fmt.Printf("preprocess done rows=%d columns=%d output=%s\n", res.Rows, res.Columns, res.OutputPath)
	case "fit":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "dataset .csv|.xlsx")
		reference := fs.String("reference", "", "reference table (default REFERENCE_PATH)")
		output := fs.String("output", "", "optional output .xlsx|.csv for the fitted matrix")
		name := fs.String("name", "", "schema name")
		_ = fs.Parse(os.Args[2:])
		if *input == "" {
			must(fmt.Errorf("--input is required"))
		}
		res, err := processor.RunFit(*input, *reference, *output, *name)
		must(err)
		fmt.Printf("fit done schema=%s rows=%d columns=%d\n", res.SchemaID, res.Rows, res.Columns)
	case "transform":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "dataset .csv|.xlsx")
		reference := fs.String("reference", "", "reference table (default REFERENCE_PATH)")
		output := fs.String("output", "", "output .xlsx|.csv")
		schemaID := fs.String("schema", "", "schema id (default: active schema)")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		res, err := processor.RunTransform(*schemaID, *input, *reference, *output)
		must(err)
		fmt.Printf("transform done schema=%s rows=%d columns=%d output=%s\n", res.SchemaID, res.Rows, res.Columns, res.OutputPath)
	case "schema:list":
		records, err := db.ListSchemas()
		must(err)
		active, err := db.GetMetadata(storage.MetaActiveSchema)
		must(err)
		for _, rec := range records {
			marker := " "
			if util.DerefString(active) == rec.ID {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  rows=%d columns=%d  %s\n", marker, rec.ID, runewidth.FillRight(rec.Name, 24), rec.RowsFit, len(rec.Columns), rec.CreatedAt)
		}
	case "schema:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		schemaID := fs.String("schema", "", "schema id (default: active schema)")
		_ = fs.Parse(os.Args[2:])
		schema, err := processor.LoadSchema(*schemaID)
		must(err)
		printSchema(schema)
	case "schema:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		schemaID := fs.String("schema", "", "schema id (default: active schema)")
		out := fs.String("out", "", "output .yaml path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		schema, err := processor.LoadSchema(*schemaID)
		must(err)
		must(pipeline.ExportSchema(schema, *out))
		fmt.Printf("exported schema %s to %s\n", schema.ID, *out)
	case "schema:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		in := fs.String("in", "", "input .yaml path")
		activate := fs.Bool("activate", true, "make the imported schema active")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*in) == "" {
			must(fmt.Errorf("--in is required"))
		}
		schema, err := pipeline.ImportSchema(*in)
		must(err)
		must(processor.SaveSchema(schema))
		if *activate {
			must(db.SetMetadata(storage.MetaActiveSchema, schema.ID))
		}
		fmt.Printf("imported schema %s\n", schema.ID)
	case "config:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output .yaml path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		must(config.FileFromConfig(cfg).Save(*out))
		fmt.Printf("wrote effective pipeline config to %s\n", *out)
	case "watch":
		s := listener.NewService(db, cfg, log)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func printSchema(s *pipeline.Schema) {
	rows := [][2]string{
		{"id", s.ID},
		{"name", s.Name},
		{"created", s.CreatedAt},
		{"rows fit", fmt.Sprint(s.RowsFit)},
		{"winsor limits", fmt.Sprintf("%g / %g", s.Options.WinsorLower, s.Options.WinsorUpper)},
		{"salary bounds", fmt.Sprintf("%g .. %g", s.Salary.Lower, s.Salary.Upper)},
		{"employment types", strings.Join(s.Encoding.EmploymentTypes, ", ")},
		{"reference type", s.Encoding.Reference},
		{"vocabulary", fmt.Sprint(len(s.Vectorizer.Vocabulary))},
		{"columns", fmt.Sprint(len(s.Columns))},
	}
	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r[0]))
	}
	for _, r := range rows {
		fmt.Printf("%s  %s\n", runewidth.FillRight(r[0], width), r[1])
	}
	fmt.Println()
	for i, c := range s.Columns {
		fmt.Printf("%4d  %s\n", i+1, c)
	}
}

func usage() {
	fmt.Println("usage: salaryprep <command>")
	fmt.Println("commands:")
	fmt.Println("  preprocess --input=jobs.csv [--reference=gdp.csv] --output=out/features.xlsx")
	fmt.Println("  fit --input=jobs.csv [--reference=gdp.csv] [--output=out/fit.xlsx] [--name=...]")
	fmt.Println("  transform --input=new.csv [--reference=gdp.csv] --output=out/new.xlsx [--schema=id]")
	fmt.Println("  schema:list")
	fmt.Println("  schema:show [--schema=id]")
	fmt.Println("  schema:export [--schema=id] --out=schema.yaml")
	fmt.Println("  schema:import --in=schema.yaml [--activate=true]")
	fmt.Println("  config:export --out=pipeline.yaml")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
