// Command rsmcheck checks a recursive state machine described in a
// .rsm JSON file against every CTL formula in a .ctl file, printing one
// result line per formula.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rfielding/rsmcheck/internal/checker"
	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/report"
	"github.com/rfielding/rsmcheck/internal/rlimit"
	"github.com/rfielding/rsmcheck/internal/rsm"
	"github.com/rfielding/rsmcheck/internal/rsmio"
	"github.com/rfielding/rsmcheck/internal/rsmlog"
	"github.com/rfielding/rsmcheck/internal/witness"
)

type options struct {
	logfile                string
	overwrite              bool
	exhaustive             bool
	expansionHeuristic     string
	maxMemMB               int
	maxTimeMinutes         int
	witnessOn              bool
	witnessFile            string
	randomizeNondeterminism bool
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "rsmcheck <path-to-rsm> <path-to-ctl>",
		Short: "Check a recursive state machine against CTL formulas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.logfile, "logfile", "log.log", "logfile name")
	flags.BoolVar(&opts.overwrite, "overwrite", false, "overwrite the existing logging file")
	flags.BoolVar(&opts.exhaustive, "exhaustive", false, "use exhaustive checking approach")
	flags.StringVar(&opts.expansionHeuristic, "expansion-heuristic", "getnext",
		"expansion heuristic for lazy checking: getnext, random, or all")
	flags.IntVar(&opts.maxMemMB, "maxmem", 0, "maximal amount of MB before memout (0 = no limit)")
	flags.IntVar(&opts.maxTimeMinutes, "maxtime", 0, "maximal time in minutes before timeout (0 = no limit)")
	flags.BoolVar(&opts.witnessOn, "witness", false, "generate witness paths for the computed results")
	flags.StringVar(&opts.witnessFile, "witness-file", "witness.log", "witness file name")
	flags.BoolVar(&opts.randomizeNondeterminism, "randomize-nondeterminism", false,
		"randomize nondeterministic choices when expanding lazily")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseHeuristic(name string) (checker.Heuristic, error) {
	switch name {
	case "getnext":
		return checker.Directed, nil
	case "random":
		return checker.Random, nil
	case "all":
		return checker.All, nil
	default:
		return 0, fmt.Errorf("invalid expansion heuristic: %s", name)
	}
}

func run(rsmPath, ctlPath string, opts *options) error {
	heuristic, err := parseHeuristic(opts.expansionHeuristic)
	if err != nil {
		return err
	}

	log, err := rsmlog.NewFile(opts.logfile, opts.overwrite)
	if err != nil {
		return fmt.Errorf("rsmcheck: %w", err)
	}
	defer log.Sync()

	if opts.maxMemMB > 0 {
		if err := rlimit.LimitMemory(opts.maxMemMB); err != nil {
			return fmt.Errorf("rsmcheck: %w", err)
		}
	}
	if opts.maxTimeMinutes > 0 {
		if err := rlimit.LimitTime(opts.maxTimeMinutes); err != nil {
			return fmt.Errorf("rsmcheck: %w", err)
		}
	}

	log.Infof("--- starting to check new rsm ---")
	log.Infof("%s %s", rsmPath, ctlPath)
	fmt.Printf("Checking RSM %s against properties %s\n", rsmPath, ctlPath)
	approach := "lazy"
	if opts.exhaustive {
		approach = "exhaustive"
	}
	log.Infof("using %s approach", approach)

	ctlBytes, err := os.ReadFile(ctlPath)
	if err != nil {
		return fmt.Errorf("rsmcheck: reading %s: %w", ctlPath, err)
	}
	formulas, err := ctlparse.ParseFile(string(ctlBytes))
	if err != nil {
		return fmt.Errorf("rsmcheck: parsing %s: %w", ctlPath, err)
	}

	var numTrue, numFalse int
	totalStart := time.Now()

	for i, phi := range formulas {
		index := i + 1
		fmt.Println("checking CTL", index)
		log.Infof("--- starting to check new formula ---")

		startParsing := time.Now()
		rsmBytes, err := os.ReadFile(rsmPath)
		if err != nil {
			return fmt.Errorf("rsmcheck: reading %s: %w", rsmPath, err)
		}
		store, err := rsmio.Parse(rsmBytes)
		if err != nil {
			return fmt.Errorf("rsmcheck: parsing %s: %w", rsmPath, err)
		}

		numComponents := len(store.CtxComponents)
		store.RemoveUnreachable()
		log.Debugf("uncontextualized RSM has %d components (of which %d are unreachable) and %d nodes",
			numComponents, numComponents-len(store.CtxComponents), totalNodes(store))

		startChecking := time.Now()

		c := checker.New(store, opts.randomizeNondeterminism, int64(index))
		if phi.IsExistential() {
			c.InitializeForFormula(phi)
		}
		if opts.exhaustive {
			c.RunExhaustive(phi)
		} else {
			c.RunLazy(phi, heuristic)
		}

		result, ok := store.Initial.Get(store.InitialNode, phi)
		if !ok {
			return fmt.Errorf("rsmcheck: formula %d (%s) was not decided at the initial node", index, phi.String())
		}
		if result {
			numTrue++
		} else {
			numFalse++
		}

		if err := report.ShortLogEntry("short_log.log", rsmPath, ctlPath, index, time.Since(startChecking)); err != nil {
			log.Warnf("%v", err)
		}

		log.Debugf("    final unpacked RSM has %d components with a total of %d states",
			len(store.CtxComponents), totalNodes(store))
		log.Debugf("    built %d new contexts and reused %d existing ones", store.NewContexts, store.Relabels)

		report.Announce(log, report.Result{
			Value:            result,
			Formula:          phi,
			InitialNode:      store.InitialNode.Name,
			InitialComponent: store.Initial.Base.Name,
		})
		log.Infof("    parsing took %v seconds", startChecking.Sub(startParsing).Seconds())
		log.Infof("    checking took %v seconds", time.Since(startChecking).Seconds())

		if opts.witnessOn {
			w, err := witness.Generate(store, phi)
			if err != nil {
				log.Warnf("%v", err)
			} else if err := appendWitness(opts.witnessFile, w); err != nil {
				log.Warnf("%v", err)
			}
		}
	}

	summary := report.Summary{NumTrue: numTrue, NumFalse: numFalse, Elapsed: time.Since(totalStart)}
	summary.Log(log)
	return nil
}

func totalNodes(store *rsm.Store) int {
	n := 0
	for _, cc := range store.CtxComponents {
		n += len(cc.Base.Nodes)
	}
	return n
}

func appendWitness(path string, w *witness.Witness) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("rsmcheck: opening witness file %q: %w", path, err)
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, w.String())
	return err
}
