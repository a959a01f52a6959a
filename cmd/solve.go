package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"aspd/internal/asp"
	"aspd/internal/server"
	"aspd/internal/session"
	"aspd/internal/smt"
	"aspd/internal/theory"
	"aspd/internal/util"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	SolveTheory string
	SolveArgs   []string
	SolveAssume []string
	SolveDeny   []string
	SolveStats  bool
)

var solveCommand = &cobra.Command{
	Use:   "solve [files...]",
	Short: "solve logic programs in process",
	Long:  ``,
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, files []string) {
		if err := solveExec(files); err != nil {
			fmt.Printf("solve err: %v", err)
		}
	},
}

func init() {
	solveCommand.Flags().StringVar(&SolveTheory, "theory", "", "theory to attach: dl or clingcon")
	solveCommand.Flags().StringSliceVar(&SolveArgs, "engine-arg", nil, "engine arguments, override engine.args")
	solveCommand.Flags().StringSliceVar(&SolveAssume, "assume", nil, "atoms assumed true")
	solveCommand.Flags().StringSliceVar(&SolveDeny, "deny", nil, "atoms assumed false")
	solveCommand.Flags().BoolVar(&SolveStats, "stats", false, "print statistics")
}

func assumptions() ([]session.Assumption, error) {
	var out []session.Assumption
	for _, group := range []struct {
		atoms []string
		sign  bool
	}{{SolveAssume, true}, {SolveDeny, false}} {
		for _, text := range group.atoms {
			sym, err := asp.ParseTerm(text)
			if err != nil {
				return nil, errors.Wrapf(err, "assumption %s", text)
			}
			out = append(out, session.Assumption{Symbol: sym, Sign: group.sign})
		}
	}
	return out, nil
}

func solveExec(files []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	args := cfg.Engine.Args
	if len(SolveArgs) > 0 {
		args = SolveArgs
	}
	assumed, err := assumptions()
	if err != nil {
		return err
	}

	smt.Init()
	defer smt.Exit()

	s := session.NewSession(server.DefaultRegistry())
	defer s.Shutdown()
	if err := s.Create(args); err != nil {
		return err
	}
	if SolveTheory != "" {
		if err := s.AttachTheory(theory.Kind(SolveTheory)); err != nil {
			return err
		}
	}
	for _, file := range files {
		program, err := os.ReadFile(file)
		if err != nil {
			return errors.Wrap(err, "read program")
		}
		log.Debugf("loading %s (%s)", file, util.ShortDigest(program))
		if err := s.Add("base", nil, string(program)); err != nil {
			return err
		}
	}
	if err := s.Ground([]asp.Part{{Name: "base"}}); err != nil {
		return err
	}
	if err := s.SolveWithAssumptions(assumed); err != nil {
		return err
	}

	count := 0
	for {
		res, err := s.Model()
		if err != nil {
			return err
		}
		if res.Status == session.ModelRunning {
			time.Sleep(time.Millisecond)
			continue
		}
		if res.Status == session.ModelDone {
			break
		}
		count++
		fmt.Printf("Answer: %d\n%s\n", count, strings.Join(strings.Fields(string(res.Payload)), " "))
		if err := s.Resume(); err != nil {
			return err
		}
	}
	if err := s.Close(); err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("SATISFIABLE")
	} else {
		fmt.Println("UNSATISFIABLE")
	}
	fmt.Printf("Models: %d\n", count)

	if SolveStats {
		stats, err := s.Statistics()
		if err != nil {
			return err
		}
		data, err := stats.MarshalJSON()
		if err != nil {
			return err
		}
		return printJSON("Statistics:", data)
	}
	return nil
}
