package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"topolink-agent/internal/application/usecases"
	"topolink-agent/internal/infrastructure/api"

	"github.com/spf13/cobra"
)

var jsonOutput bool

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [node...]",
		Short: "Report mapped ports that no longer match the kernel",
		Long: `Load the topology, bind its ports and compare every mapping with the
node's links. Without arguments every node is checked.

Exits non-zero when any node drifted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			appContainer, _, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := appContainer.LoadTopology(ctx); err != nil {
				return err
			}

			nodes := args
			if len(nodes) == 0 {
				nodes = appContainer.GetSession().NodeNames()
			}

			var reports []*usecases.VerifyPortsOutput
			for _, node := range nodes {
				out, err := appContainer.GetLinkOperations().VerifyPorts(ctx, node)
				if err != nil {
					return err
				}
				reports = append(reports, out)
			}

			if err := printReports(os.Stdout, reports, jsonOutput); err != nil {
				return err
			}
			for _, report := range reports {
				if !report.Consistent() {
					return fmt.Errorf("drift detected on node %s", report.NodeName)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	return cmd
}

func printReports(w io.Writer, reports []*usecases.VerifyPortsOutput, asJSON bool) error {
	if asJSON {
		out := make([]api.VerifyResponse, 0, len(reports))
		for _, report := range reports {
			out = append(out, api.NewVerifyResponse(report))
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	for _, report := range reports {
		status := "ok"
		if !report.Consistent() {
			status = "DRIFT"
		}
		fmt.Fprintf(w, "%-12s %-6s %d port(s) checked\n", report.NodeName, status, report.Checked)
		for _, drift := range report.Drifts {
			observed := "-"
			if drift.Observed != nil {
				observed = fmt.Sprintf("%s/%s", drift.Observed.Name, drift.Observed.Type)
			}
			fmt.Fprintf(w, "  %-14s %-14s expected %s/%s observed %s\n",
				drift.LogicalPort, drift.Type, drift.Expected.Name, drift.Expected.Type, observed)
		}
	}
	return nil
}
