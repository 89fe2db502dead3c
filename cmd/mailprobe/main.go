// Command mailprobe checks candidate addresses from the command line and
// prints the results as JSON.
//
//	mailprobe [flags] address...
//	mailprobe [flags] -first Ada -last Lovelace -domain example.org
//
// Exit status is 3 when the SMTP channel is unavailable from this host and
// 1 on any other failure.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe"
	"github.com/optimode/mailprobe/internal/config"
)

const (
	exitFailure     = 1
	exitUnavailable = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mailprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile = fs.String("config", "", "path to a config file")
		first      = fs.String("first", "", "first name, used with -last and -domain")
		last       = fs.String("last", "", "last name")
		domain     = fs.String("domain", "", "domain to guess addresses for")
		validOnly  = fs.Bool("valid-only", false, "print accepted addresses only")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	person := *first != "" || *last != "" || *domain != ""
	if person == (fs.NArg() > 0) {
		fmt.Fprintln(stderr, "mailprobe: give either addresses or -first, -last and -domain")
		fs.Usage()
		return exitFailure
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, "mailprobe:", err)
		return exitFailure
	}
	if *verbose {
		cfg.LogLevel = logrus.DebugLevel
	}
	log := cfg.Logger()
	log.SetOutput(stderr)
	v := cfg.Verifier(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []mailprobe.Result
	if person {
		results, err = v.VerifyPerson(ctx, mailprobe.Person{FirstName: *first, LastName: *last, Domain: *domain})
	} else {
		results, err = v.VerifyBatch(ctx, fs.Args())
	}
	if err != nil {
		fmt.Fprintln(stderr, "mailprobe:", err)
		if errors.Is(err, mailprobe.ErrUnavailable) {
			return exitUnavailable
		}
		return exitFailure
	}

	if *validOnly {
		results = mailprobe.ValidOnly(results)
	}
	if results == nil {
		results = []mailprobe.Result{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		fmt.Fprintln(stderr, "mailprobe:", err)
		return exitFailure
	}
	return 0
}
