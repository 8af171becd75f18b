package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	cdpadapter "arcnet/internal/adapter/cdp"
	"arcnet/internal/cookie"

	"github.com/spf13/cobra"
)

var (
	cookiesURLArg     string
	cookiesJSONArg    bool
	cookiesDomainArg  string
	cookiesSessionArg bool
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Cookie 解析与存储",
}

var cookiesParseCmd = &cobra.Command{
	Use:   "parse <header>",
	Short: "解析 Cookie / Set-Cookie 头并输出 JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list := cookie.Parse(args[0])
		if cookiesURLArg != "" {
			u, err := url.Parse(cookiesURLArg)
			if err != nil {
				return err
			}
			list = cookie.FillAttributes(u, list)
		}
		return writeJSON(cmd, list)
	},
}

var cookiesStoreCmd = &cobra.Command{
	Use:   "store <url> <set-cookie>...",
	Short: "保存响应返回的 Set-Cookie",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openCookieService()
		if err != nil {
			return err
		}
		defer closeDB()

		stored, err := svc.StoreResponse(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %d cookie(s)\n", len(stored))
		return nil
	},
}

var cookiesGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "输出请求 url 时应发送的 Cookie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openCookieService()
		if err != nil {
			return err
		}
		defer closeDB()

		if cookiesJSONArg {
			list, err := svc.CookiesFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, list)
		}
		header, err := svc.CookieHeader(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), header)
		return nil
	},
}

var cookiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出已保存的 Cookie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeDB, err := openCookieService()
		if err != nil {
			return err
		}
		defer closeDB()

		list, err := svc.List(cmd.Context(), cookiesDomainArg)
		if err != nil {
			return err
		}
		if cookiesJSONArg {
			return writeJSON(cmd, list)
		}
		for _, c := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Domain, c.Header())
		}
		return nil
	},
}

var cookiesImportCmd = &cobra.Command{
	Use:   "import-cdp <file|->",
	Short: "导入 DevTools 协议 Network.getAllCookies 的结果",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		raw, err := cdpadapter.ParseCookiesJSON(data)
		if err != nil {
			return err
		}

		svc, closeDB, err := openCookieService()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := svc.Import(cmd.Context(), cdpadapter.FromCDPCookies(raw))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d cookie(s)\n", n, len(raw))
		return nil
	},
}

var cookiesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "删除过期 Cookie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeDB, err := openCookieService()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := svc.Prune(cmd.Context(), cookiesSessionArg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cookie(s)\n", n)
		return nil
	},
}

var cookiesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "删除指定域名或全部 Cookie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeDB, err := openCookieService()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := svc.Clear(cmd.Context(), cookiesDomainArg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cookie(s)\n", n)
		return nil
	},
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	cookiesParseCmd.Flags().StringVar(&cookiesURLArg, "url", "", "fill missing domain/path from this request url")
	cookiesGetCmd.Flags().BoolVar(&cookiesJSONArg, "json", false, "print cookies as JSON")
	cookiesListCmd.Flags().BoolVar(&cookiesJSONArg, "json", false, "print cookies as JSON")
	cookiesListCmd.Flags().StringVar(&cookiesDomainArg, "domain", "", "only list cookies of this domain")
	cookiesClearCmd.Flags().StringVar(&cookiesDomainArg, "domain", "", "only remove cookies of this domain")
	cookiesPruneCmd.Flags().BoolVar(&cookiesSessionArg, "session", false, "also remove session cookies")

	cookiesCmd.AddCommand(cookiesParseCmd, cookiesStoreCmd, cookiesGetCmd, cookiesListCmd,
		cookiesImportCmd, cookiesPruneCmd, cookiesClearCmd)
	rootCmd.AddCommand(cookiesCmd)
}
