package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"vanitypgp.dev/vanitypgp/pgp"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("vanitypgp", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var (
		suiteName = fs.String("suite", "ed25519", "cipher suite preset: "+strings.Join(pgp.SuiteNames(), ", "))
		pattern   = fs.String("pattern", "", "RE2 pattern matched against the 40-hex fingerprint (empty accepts the first key)")
		uid       = fs.String("uid", "", `user id to bind, e.g. "Alice <alice@example.com>" (empty emits no identity packet)`)
		jobs      = fs.Int("jobs", runtime.GOMAXPROCS(0), "parallel search workers, each with its own key")
		maxSteps  = fs.Uint64("max-steps", 1<<28, "per-worker shuffle bound")
		outDir    = fs.String("out", "", "directory for <fingerprint>.pub.asc / <fingerprint>.sec.asc (stdout when empty)")
	)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "vanitypgp: search for an OpenPGP key with a vanity fingerprint")
		fmt.Fprintln(errOut)
		fmt.Fprintln(errOut, "Usage:")
		fmt.Fprintln(errOut, "  vanitypgp [-suite <preset>] [-pattern <re2>] [-uid <id>] [-jobs <n>] [-max-steps <n>] [-out <dir>]")
		fmt.Fprintln(errOut)
		fmt.Fprintln(errOut, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(errOut)
		fmt.Fprintln(errOut, "Notes:")
		fmt.Fprintln(errOut, "  - the pattern is unanchored; use ^/$ or match a suffix like 'cafe$'")
		fmt.Fprintln(errOut, "  - each worker owns an independent key, so any worker's match is a valid key")
		fmt.Fprintln(errOut, "  - the search only walks the creation timestamp backward; key material is generated once per worker")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	suite, err := pgp.ParseSuite(*suiteName)
	if err != nil {
		fmt.Fprintf(errOut, "vanitypgp: %v\n", err)
		return 2
	}
	re, err := regexp.Compile(*pattern)
	if err != nil {
		fmt.Fprintf(errOut, "vanitypgp: invalid pattern: %v\n", err)
		return 2
	}
	if *jobs < 1 {
		fmt.Fprintln(errOut, "vanitypgp: -jobs must be at least 1")
		return 2
	}

	res, err := search(context.Background(), suite, re, *uid, *jobs, *maxSteps)
	if err != nil {
		fmt.Fprintf(errOut, "vanitypgp: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "fingerprint: %s\n", res.fingerprint)

	if *outDir == "" {
		fmt.Fprint(out, res.key.Public)
		fmt.Fprint(out, res.key.Private)
		return 0
	}
	pubPath, secPath, err := writeKeyFiles(*outDir, res.fingerprint, res.key)
	if err != nil {
		fmt.Fprintf(errOut, "vanitypgp: writing key files: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "wrote %s\n", pubPath)
	fmt.Fprintf(errOut, "wrote %s\n", secPath)
	return 0
}

type match struct {
	fingerprint string
	key         *pgp.ArmoredKey
}

// errFound cancels sibling workers once a worker has finalized a match.
var errFound = errors.New("match found")

var errNoMatch = errors.New("no matching fingerprint within the step bound")

// search shards the timestamp space across jobs independent backends and
// returns the first finalized match. Each worker pays key generation once,
// then iterates the cheap fingerprint/shuffle pair.
func search(ctx context.Context, suite pgp.CipherSuite, re *regexp.Regexp, uid string, jobs int, maxSteps uint64) (*match, error) {
	g, ctx := errgroup.WithContext(ctx)
	found := make(chan *match, 1)
	for i := 0; i < jobs; i++ {
		g.Go(func() error {
			b, err := pgp.New(suite)
			if err != nil {
				return err
			}
			for step := uint64(0); ; step++ {
				fp := b.Fingerprint()
				if re.MatchString(fp) {
					key, err := b.Finalize(uid)
					if err != nil {
						return err
					}
					select {
					case found <- &match{fingerprint: fp, key: key}:
					default:
					}
					return errFound
				}
				if step >= maxSteps {
					return nil
				}
				if step%1024 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}
				if err := b.Shuffle(); err != nil {
					return err
				}
			}
		})
	}
	err := g.Wait()
	select {
	case m := <-found:
		return m, nil
	default:
	}
	if err != nil && !errors.Is(err, errFound) && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return nil, errNoMatch
}
