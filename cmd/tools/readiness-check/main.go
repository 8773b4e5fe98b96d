// cmd/tools/readiness-check/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"gradabroad-workers/internal/common/auth"
	apphttp "gradabroad-workers/internal/common/http"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/validation"
	"gradabroad-workers/internal/documents"
	"gradabroad-workers/internal/matching"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/readiness"
	"gradabroad-workers/pkg/registry"
)

const tokenEnv = "GRADABROAD_TOKEN"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return errors.New("command required")
	}

	switch args[0] {
	case "check":
		return runCheck(args[1:], out)
	case "validate":
		return runValidate(args[1:], out)
	case "help", "-h", "--help":
		help(out)
		return nil
	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(out)
	baseURL := fs.String("base-url", "http://localhost:8000", "GradAbroad backend base URL")
	programmeID := fs.Int64("programme", 0, "Programme ID")
	token := fs.String("token", "", "Bearer token (defaults to $"+tokenEnv+")")
	strategy := fs.String("strategy", matching.StrategySubstring, "Matching strategy (substring, hint)")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall request timeout")
	asJSON := fs.Bool("json", false, "Print the full readiness table as JSON")
	verbose := fs.Bool("v", false, "Log document fetch warnings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *programmeID <= 0 {
		return errors.New("-programme is required")
	}
	if *token == "" {
		*token = os.Getenv(tokenEnv)
	}
	raw, err := auth.NewTokenChecker(0).Require(*token)
	if err != nil {
		return err
	}

	matcher, err := matching.New(*strategy)
	if err != nil {
		return err
	}

	log := logger.NewNoOpLogger()
	if *verbose {
		log = logger.NewStructured("debug", "console")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := apphttp.NewClient(*baseURL, *timeout)
	programme, err := readiness.NewProgrammeLoader(client).Load(ctx, raw, *programmeID)
	if err != nil {
		return err
	}

	docs, err := documents.NewAccessor(client, log).FetchDocumentStatus(ctx, raw)
	if err != nil {
		if !errors.Is(err, documents.ErrDocumentsUnavailable) {
			return err
		}
		fmt.Fprintln(out, "warning: document store unavailable, every document requirement counts as missing")
		docs = nil
	}

	result := readiness.NewAggregator(matcher).Compute(readiness.Input{
		Programme: *programme,
		Documents: docs,
	})

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printReadiness(out, programme, result)
	return nil
}

func printReadiness(out io.Writer, programme *models.Programme, r *models.Readiness) {
	fmt.Fprintf(out, "Programme %d: %s\n\n", programme.ID, programme.Name)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tKIND\tSTATUS\tREQUIRED\tREASON")
	for _, req := range r.Requirements {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n",
			req.Requirement.ID,
			req.Requirement.Label,
			req.Kind,
			req.Status,
			req.Requirement.IsRequired(),
			req.Reason,
		)
	}
	tw.Flush()

	fmt.Fprintln(out)
	for _, c := range r.Categories {
		state := "ok"
		switch {
		case c.HasMissingRequired:
			state = "missing required"
		case !c.AllSatisfied:
			state = "incomplete"
		}
		fmt.Fprintf(out, "  %-28s %s\n", c.Title, state)
	}

	fmt.Fprintln(out)
	if r.ReadyToSubmit {
		fmt.Fprintln(out, "Ready to submit.")
		return
	}
	fmt.Fprintf(out, "Not ready: %d required item(s) missing %v\n", len(r.MissingRequired), r.MissingRequired)
}

func runValidate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("path", "", "Path to registry file (defaults to the built-in registry)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return errors.New("registry contains no activities")
	}
	if errs := validation.ValidateRegistry(reg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(out, "  - %v\n", e)
		}
		return fmt.Errorf("registry validation failed with %d error(s)", len(errs))
	}
	if _, err := validation.NewInputValidator(reg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	for _, tt := range reg.TaskTypes() {
		fmt.Fprintf(out, "  %s\n", tt)
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprint(out, `
Usage: readiness-check <command> [flags]

Commands:
  check     Fetch a programme and the student's documents and print readiness
  validate  Validate the activity registry
  help      Show this help message

Examples:
  GRADABROAD_TOKEN=... readiness-check check -base-url https://api.gradabroad.com -programme 42
  readiness-check check -programme 42 -strategy hint -json
  readiness-check validate -path configs/activity-registry.json
`)
}
