package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"aspd/internal/session"
	"aspd/internal/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	ClientInput     string
	ClientServer    string
	ClientConf      bool
	ClientStats     bool
	ClientAssume    bool
	ClientPigeons   bool
	ClientExternal  bool
	ClientTheoryDL  bool
	ClientTheoryCon bool
)

// clientConf is the default configuration, set with --conf.
const clientConf = `{
  "tester": {"solver": [], "configuration": "auto", "share": "auto", "learn_explicit": "0", "sat_prepro": "no"},
  "solve": {"solve_limit": "umax,umax", "parallel_mode": "1,compete", "global_restarts": "no",
    "distribute": "conflict,global,4,4194303", "integrate": "gp,1024,all", "enum_mode": "auto",
    "project": "no", "models": "0", "opt_mode": "opt"},
  "asp": {"trans_ext": "dynamic", "eq": "3", "backprop": "0", "supp_models": "0", "no_ufs_check": "0",
    "no_gamma": "0", "eq_dfs": "0", "dlp_old_map": "0"},
  "solver": [],
  "configuration": "auto", "share": "auto", "learn_explicit": "0", "sat_prepro": "no",
  "stats": "0", "parse_ext": "false", "parse_maxsat": "false"
}`

var clientCommand = &cobra.Command{
	Use:   "client",
	Short: "run a logic program against a solving server",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		if err := clientExec(); err != nil {
			fmt.Printf("client err: %v", err)
		}
	},
}

func init() {
	clientCommand.Flags().StringVarP(&ClientInput, "input", "i", "", "logic program")
	clientCommand.Flags().StringVar(&ClientServer, "server", "", "server URL, overrides client.server")
	clientCommand.Flags().BoolVarP(&ClientConf, "conf", "c", false, "set and get configuration")
	clientCommand.Flags().BoolVarP(&ClientStats, "stats", "s", false, "get statistics")
	clientCommand.Flags().BoolVar(&ClientAssume, "assume", false, "assume queen(3,1) to be true")
	clientCommand.Flags().BoolVar(&ClientPigeons, "pigeons", false, "ground the pigeon part with holes=3 pigeons=2")
	clientCommand.Flags().BoolVar(&ClientExternal, "external", false, "assign external atom enable to true")
	clientCommand.Flags().BoolVar(&ClientTheoryDL, "theory-dl", false, "load the difference logic theory")
	clientCommand.Flags().BoolVar(&ClientTheoryCon, "theory-con", false, "load the clingcon theory")
	_ = clientCommand.MarkFlagRequired("input")
}

func printJSON(title string, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	fmt.Println(title, buf.String())
	return nil
}

func clientExec() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ClientServer != "" {
		cfg.Client.Server = ClientServer
	}
	program, err := os.ReadFile(ClientInput)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	c := util.NewClient(cfg.Client.Server, cfg.Client.Timeout)
	ctx := context.Background()

	var resp *util.Response
	step := func(r *util.Response, err error) error {
		if err != nil {
			return err
		}
		resp = r
		fmt.Println(r.String())
		return nil
	}

	if err := step(c.Get(ctx, "/")); err != nil {
		return err
	}
	if err := step(c.Get(ctx, "create")); err != nil {
		return err
	}
	if resp.Status == http.StatusConflict {
		fmt.Println("Solver already running ...")
		fmt.Println("Shutting down old solver ...")
		if err := step(c.Get(ctx, "close")); err != nil {
			return err
		}
		if err := step(c.Get(ctx, "create")); err != nil {
			return err
		}
	}

	if ClientTheoryDL {
		if err := step(c.Get(ctx, "register_dl_theory")); err != nil {
			return err
		}
	}
	if ClientTheoryCon {
		if err := step(c.Get(ctx, "register_con_theory")); err != nil {
			return err
		}
	}
	if err := step(c.Post(ctx, "add", "text/plain; charset=utf-8", bytes.NewReader(program))); err != nil {
		return err
	}

	if ClientConf {
		if err := step(c.PostJSON(ctx, "set_configuration", clientConf)); err != nil {
			return err
		}
		var conf json.RawMessage
		if err := c.GetJSON(ctx, "configuration", &conf); err != nil {
			return err
		}
		if err := printJSON("Configuration:", conf); err != nil {
			return err
		}
	}

	part := `{"base": []}`
	if ClientPigeons {
		part = `{"pigeon": ["3", "2"]}`
	}
	if err := step(c.PostJSON(ctx, "ground", part)); err != nil {
		return err
	}
	if ClientExternal {
		if err := step(c.PostJSON(ctx, "assign_external", `{"literal": "enable", "truth_value": "True"}`)); err != nil {
			return err
		}
	}

	assumptions := "[]"
	if ClientAssume {
		assumptions = `[["queen(3,1)", true]]`
	}
	if err := step(c.PostJSON(ctx, "solve_with_assumptions", assumptions)); err != nil {
		return err
	}
	if err := pollModels(ctx, c, cfg.Client.PollInterval); err != nil {
		return err
	}

	if ClientExternal {
		if err := step(c.PostJSON(ctx, "release_external", `"enable"`)); err != nil {
			return err
		}
	}
	if ClientStats {
		var stats json.RawMessage
		if err := c.GetJSON(ctx, "statistics", &stats); err != nil {
			return err
		}
		return printJSON("Statistics:", stats)
	}
	return nil
}

// pollModels prints every model of the running search and closes it.
func pollModels(ctx context.Context, c *util.Client, interval time.Duration) error {
	count := 0
	for {
		resp, err := c.Get(ctx, "model")
		if err != nil {
			return err
		}
		if !resp.OK() {
			fmt.Println("ServerError")
			fmt.Println(resp.String())
			break
		}
		var res session.ModelResult
		if err := json.Unmarshal(resp.Body, &res); err != nil {
			return errors.Wrapf(err, "unexpected response to model request: %s", resp.Body)
		}
		if res.Status == session.ModelDone {
			fmt.Println("Search finished, no more models.")
			break
		}
		if res.Status == session.ModelRunning {
			fmt.Printf("No model yet ... waiting %s.\n", interval)
			time.Sleep(interval)
			continue
		}
		count++
		fmt.Println("Model", count, ":")
		fmt.Println(string(res.Payload))
		resp, err = c.Get(ctx, "resume")
		if err != nil {
			return err
		}
		fmt.Println(resp.String())
	}
	resp, err := c.Get(ctx, "close")
	if err != nil {
		return err
	}
	fmt.Println(resp.String())
	return nil
}
