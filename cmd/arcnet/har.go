package main

import (
	"os"

	"arcnet/internal/har"
	"arcnet/internal/record"

	"github.com/spf13/cobra"
)

var (
	harOutputArg  string
	harCompactArg bool
	harRedactArg  []string
	harNoRedact   bool
)

var harCmd = &cobra.Command{
	Use:   "har",
	Short: "HAR 导出",
}

var harExportCmd = &cobra.Command{
	Use:   "export <records.json|->",
	Short: "将导出的请求记录转换为 HAR 1.2",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		requests, err := record.Load(data)
		if err != nil {
			return err
		}

		t := har.NewTransformer(
			har.WithCreator(cfg.Har.CreatorName, cfg.Har.CreatorVersion),
			har.WithLogger(log),
		)
		out, err := har.Marshal(t.Transform(requests), !harCompactArg)
		if err != nil {
			return err
		}

		redact := cfg.Har.Redact
		if cmd.Flags().Changed("redact") {
			redact = harRedactArg
		}
		if !harNoRedact {
			if out, err = har.Redact(out, redact); err != nil {
				return err
			}
		}

		if harOutputArg == "" || harOutputArg == "-" {
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		}
		log.Info("写入 HAR 文件", "path", harOutputArg, "requests", len(requests))
		return os.WriteFile(harOutputArg, out, 0o644)
	},
}

func init() {
	harExportCmd.Flags().StringVarP(&harOutputArg, "output", "o", "", "output file, stdout when empty")
	harExportCmd.Flags().BoolVar(&harCompactArg, "compact", false, "write compact JSON")
	harExportCmd.Flags().StringSliceVar(&harRedactArg, "redact", nil, "header names to redact, overrides config")
	harExportCmd.Flags().BoolVar(&harNoRedact, "no-redact", false, "disable redaction")
	harCmd.AddCommand(harExportCmd)
	rootCmd.AddCommand(harCmd)
}
