package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render/html"
	"github.com/goliatone/go-formstate/pkg/terminal"
)

func main() {
	definition := flag.String("definition", "", "form definition file (.json, .yaml, .yml or .hcl)")
	source := flag.String("openapi", "", "OpenAPI document path or URL")
	opID := flag.String("operation", "", "operation ID whose request body becomes the form")
	renderHTML := flag.Bool("html", false, "render the form as HTML instead of prompting")
	action := flag.String("action", "", "form action used with -html")
	output := flag.String("output", "", "output file (stdout if empty)")
	attempts := flag.Int("attempts", terminal.DefaultMaxAttempts, "prompts per field before giving up")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	def, err := loadDefinition(ctx, *definition, *source, *opID)
	if err != nil {
		log.Fatalf("Failed to load form: %v", err)
	}

	f, mounted, err := formstate.Mount(def, []form.Option{form.WithLogger(logger)})
	if err != nil {
		log.Fatalf("Failed to mount form: %v", err)
	}
	defer f.Close()
	defer mounted.Close()

	var payload []byte
	if *renderHTML {
		out, err := formstate.RenderHTML(def, f, html.WithAction(*action, "post"), html.WithLogger(logger))
		if err != nil {
			log.Fatalf("Failed to render form: %v", err)
		}
		payload = []byte(out)
	} else {
		session, err := terminal.NewSession(def, f, mounted,
			terminal.WithPromptDriver(terminal.NewSurveyDriver(os.Stderr)),
			terminal.WithMaxAttempts(*attempts),
			terminal.WithLogger(logger),
		)
		if err != nil {
			log.Fatalf("Failed to start session: %v", err)
		}
		snap, runErr := session.Run(ctx)
		if runErr != nil && !errors.Is(runErr, terminal.ErrInvalid) {
			log.Fatalf("Session ended: %v", runErr)
		}
		payload, err = json.MarshalIndent(snap, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode snapshot: %v", err)
		}
		if runErr != nil {
			logger.Warn("submitted with errors", "form", def.Name)
		}
	}

	if *output != "" {
		if err := os.WriteFile(*output, payload, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Written to %s\n", *output)
		return
	}
	fmt.Println(string(payload))
}

func loadDefinition(ctx context.Context, definition, source, operationID string) (formdef.Definition, error) {
	switch {
	case strings.TrimSpace(definition) != "":
		return formstate.LoadDefinition(definition)
	case strings.TrimSpace(source) != "":
		if strings.TrimSpace(operationID) == "" {
			return formdef.Definition{}, errors.New("-operation is required with -openapi")
		}
		return formstate.LoadOpenAPI(ctx, source, operationID, openapi.WithHTTPFallback(30*time.Second))
	default:
		return formdef.Definition{}, errors.New("one of -definition or -openapi is required")
	}
}
