package cli

import (
	"flag"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// CLIArgs are the command-line arguments of a single scan.
type CLIArgs struct {
	// Target is the URL of the page to extract and audit.
	Target string

	Payload string

	// Pattern is the detection regex. Defaults to the quoted payload, which
	// flags plain reflection.
	Pattern string

	// Expect is nil unless -expect was given; an explicit empty value is
	// a valid expectation.
	Expect *string

	// Category toggles; nil means "use config default".
	Forms   *bool
	Links   *bool
	Cookies *bool

	// EnvFile is an optional dotenv file read before the environment.
	EnvFile string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("surfaudit", flag.ContinueOnError)
	var (
		target  = fs.String("target", "", "URL of the page to audit (required)")
		payload = fs.String("payload", "", "Value injected into each target (required)")
		pattern = fs.String("pattern", "", "Regex that flags a positive response (default: the literal payload)")
		expect  = fs.String("expect", "", "Value the pattern's first capture must equal")
		forms   = fs.Bool("forms", true, "Audit form inputs")
		links   = fs.Bool("links", true, "Audit the page's query variables")
		cookies = fs.Bool("cookies", true, "Audit cookies")
		envFile = fs.String("env", ".env", "Optional dotenv file")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		// Flag parsing errors are useful to return to caller
		return nil, err
	}

	if strings.TrimSpace(*target) == "" {
		return nil, fmt.Errorf("missing required -target argument")
	}
	if *payload == "" {
		return nil, fmt.Errorf("missing required -payload argument")
	}

	out := &CLIArgs{
		Target:  strings.TrimSpace(*target),
		Payload: *payload,
		Pattern: *pattern,
		EnvFile: *envFile,
		RawArgs: args,
	}
	if out.Pattern == "" {
		out.Pattern = regexp.QuoteMeta(*payload)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "expect":
			v := *expect
			out.Expect = &v
		case "forms":
			v := *forms
			out.Forms = &v
		case "links":
			v := *links
			out.Links = &v
		case "cookies":
			v := *cookies
			out.Cookies = &v
		}
	})

	return out, nil
}
