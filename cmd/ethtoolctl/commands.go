package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/ethtoolpro/internal/service"
)

var getCmd = &cobra.Command{
	Use:   "get FAMILY IFACE",
	Short: "Query one record family and print it as structured data",
	Long: `Query one record family and print it as structured data.

Families: ` + strings.Join(service.FamilyNames(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := target
		t.Interface = args[1]
		resp, err := newService().Query(cmd.Context(), &service.QueryRequest{Target: t, Family: args[0]})
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), resp.Record)
	},
}

var setCmd = &cobra.Command{
	Use:   "set OPERATION IFACE NAME VALUE",
	Short: "Apply a setting",
	Long: `Apply a setting.

Operations: ` + strings.Join(service.SetOperations(), ", "),
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := target
		t.Interface = args[1]
		resp, err := newService().Apply(cmd.Context(), &service.SetRequest{
			Target:    t,
			Operation: args[0],
			Name:      args[2],
			Value:     args[3],
		})
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), resp)
	},
}

var raw service.RawRequest

var rawCmd = &cobra.Command{
	Use:   "raw OPERATION [IFACE [PARAMS]]",
	Short: "Run an operation whose output is returned verbatim",
	Long: `Run an operation whose output is returned verbatim.

Operations: ` + strings.Join(service.RawOperations(), ", "),
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := raw
		req.Target = target
		req.Operation = args[0]
		if len(args) > 1 {
			req.Interface = args[1]
		}
		if len(args) > 2 {
			req.Params = args[2]
		}
		resp, err := newService().Raw(cmd.Context(), &req)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), resp.Output)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Check that ethtool is available and print its version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := newService().Version(cmd.Context(), target)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), map[string]string{
			"ethtool":    v,
			"ethtoolctl": version,
			"host":       hostOf(target),
		})
	},
}

func hostOf(t service.Target) string {
	if t.Local {
		return "local"
	}
	return t.DeviceIP
}

func init() {
	f := rawCmd.Flags()
	f.StringVar(&raw.Option, "option", "", "ethtool option for execute, or -u|-n|-U|-N for flow_get/flow_set")
	f.StringVar(&raw.Params, "params", "", "extra parameters")
	f.StringVar(&raw.Name, "name", "", "parameter name")
	f.StringVar(&raw.Value, "value", "", "parameter value")
	f.IntVar(&raw.Duration, "duration", 0, "seconds, for identify")
	f.StringVar(&raw.File, "file", "", "file, for flash and register dumps")
	f.StringVar(&raw.Region, "region", "", "flash region")

	rootCmd.AddCommand(getCmd, setCmd, rawCmd, versionCmd)
}
