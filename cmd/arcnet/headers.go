package main

import (
	"errors"
	"fmt"
	"strings"

	"arcnet/internal/headers"

	"github.com/spf13/cobra"
)

var (
	headersPayloadArg bool
	headersUniqueArg  bool
	headersSetArg     []string
)

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "请求头工具",
}

var headersLintCmd = &cobra.Command{
	Use:   "lint <file|->",
	Short: "检查原始头部文本",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		err = headers.Validate(string(data), headersPayloadArg)
		var verr *headers.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				cmd.PrintErrln(p)
			}
			return fmt.Errorf("%d problem(s) found", len(verr.Problems))
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

var headersNormalizeCmd = &cobra.Command{
	Use:   "normalize <file|->",
	Short: "规范化头部文本，可选合并重复项或替换指定头部",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		fields := headers.FromString(string(data))
		if headersUniqueArg {
			fields = headers.Unique(fields)
		}
		for _, kv := range headersSetArg {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(name) == "" {
				return fmt.Errorf("invalid --set %q, expected name=value", kv)
			}
			fields = headers.Replace(fields, strings.TrimSpace(name), value)
		}
		fmt.Fprintln(cmd.OutOrStdout(), headers.ToString(fields))
		return nil
	},
}

func init() {
	headersLintCmd.Flags().BoolVar(&headersPayloadArg, "payload", false, "validate content-length as for a request with body")
	headersNormalizeCmd.Flags().BoolVarP(&headersUniqueArg, "unique", "u", false, "merge duplicate headers")
	headersNormalizeCmd.Flags().StringArrayVar(&headersSetArg, "set", nil, "replace or add a header, name=value")
	headersCmd.AddCommand(headersLintCmd, headersNormalizeCmd)
	rootCmd.AddCommand(headersCmd)
}
