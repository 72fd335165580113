package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8"
	"k8s.io/klog/v2"

	"github.com/janwillem32/rsbd8/internal/bench"
)

var gitCommitSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "rsbd8bench",
		Version:     gitCommitSHA,
		Description: "benchmark and demo harness for the rsbd8 radix-sort engine",
		Flags:       newKlogFlagSet(),
		Commands: []*cli.Command{
			newRunCmd(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}

func newRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a benchmark config and print/report the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "path to a YAML benchmark config",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "if set, write a zstd-compressed JSON report to this path",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := bench.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			progress := mpb.New(mpb.WithWidth(40))
			report, err := bench.Run(*cfg, progress)
			progress.Wait()
			if err != nil {
				klog.Warningf("benchmark completed with errors: %v", err)
			}

			fmt.Println(report.Summary())

			if out := c.String("report"); out != "" {
				if writeErr := bench.WriteCompressed(out, report); writeErr != nil {
					return writeErr
				}
			}
			return err
		},
	}
}
