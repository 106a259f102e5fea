package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/rpc"
	"github.com/hiverpc/hiverpc/util"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

func newClient(ctx context.Context, cmd *cli.Command, fs afero.Fs) (*rpc.Client, error) {
	cfg, err := loadConfig(cmd, fs)
	if err != nil {
		return nil, err
	}
	logger := configureLogger(cmd, cfg)
	if err := common.InitializeTracing(ctx, logger, cfg.Tracing); err != nil {
		logger.Warn().Err(err).Msg("continuing without tracing")
	}
	return rpc.NewClient(logger, cfg)
}

func callAction(ctx context.Context, cmd *cli.Command, fs afero.Fs, out io.Writer) error {
	args := cmd.Args()
	if args.Len() < 2 {
		return fmt.Errorf("usage: hiverpc call <api> <method> [params-json]")
	}
	var params interface{} = []interface{}{}
	if raw := args.Get(2); raw != "" {
		if err := common.SonicCfg.UnmarshalFromString(raw, &params); err != nil {
			return fmt.Errorf("params must be valid JSON: %w", err)
		}
	}

	client, err := newClient(ctx, cmd, fs)
	if err != nil {
		return err
	}
	result, err := client.Call(ctx, args.Get(0), args.Get(1), params)
	if err != nil {
		return err
	}

	var v interface{}
	if err := common.SonicCfg.Unmarshal(result, &v); err != nil {
		return err
	}
	pretty, err := common.SonicCfg.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(pretty))
	return err
}

func probeAction(ctx context.Context, cmd *cli.Command, fs afero.Fs, out io.Writer) error {
	client, err := newClient(ctx, cmd, fs)
	if err != nil {
		return err
	}
	results := client.ProbeNodes(ctx)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tHEAD BLOCK\tLATENCY\tERROR")
	failed := 0
	for _, r := range results {
		errText := "-"
		head := "-"
		if r.Err != nil {
			failed++
			errText = util.TruncateString(r.Err.Error(), 80)
		} else {
			head = humanize.Comma(r.HeadBlock)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", util.RedactEndpoint(r.Node), head, r.Latency.Round(time.Millisecond), errText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed == len(results) {
		return fmt.Errorf("no node answered")
	}
	return nil
}

func healthAction(ctx context.Context, cmd *cli.Command, fs afero.Fs, out io.Writer) error {
	client, err := newClient(ctx, cmd, fs)
	if err != nil {
		return err
	}
	client.ProbeNodes(ctx)

	tracker := client.Tracker()
	snapshot := tracker.GetHealthSnapshot()
	nodes := make([]string, 0, len(snapshot))
	for n := range snapshot {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	best := tracker.BestKnownHeadBlock()
	fmt.Fprintf(out, "best known head block: %s\n", humanize.Comma(best))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tHEALTHY\tFAILURES\tHEAD BLOCK\tBEHIND\tP50\tP90")
	for _, n := range nodes {
		s := snapshot[n]
		behind := "-"
		if s.HeadBlock > 0 && best > 0 {
			behind = humanize.Comma(best - s.HeadBlock)
		}
		fmt.Fprintf(tw, "%s\t%t\t%d\t%s\t%s\t%s\t%s\n",
			util.RedactEndpoint(n), s.Healthy, s.ConsecutiveFailures, humanize.Comma(s.HeadBlock), behind,
			s.LatencyP50.Round(time.Millisecond), s.LatencyP90.Round(time.Millisecond))
	}
	return tw.Flush()
}
