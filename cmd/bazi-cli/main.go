// Package main 排盘命令行客户端（bazi-cli）。排盘与任务命令通过 HTTP API
// 访问服务，tables 命令在本地输出引擎内置常量表。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/tengod"
	"bazi-engine-api/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	apiAddr string
	token   string
	timeout time.Duration
	rawJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "bazi-cli",
	Short: "四柱排盘命令行客户端",
	Long:  "bazi-cli 通过 HTTP API 执行四柱/公历排盘、提交批量任务并查询任务状态。",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "按四柱干支排盘",
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetString("year")
		month, _ := cmd.Flags().GetString("month")
		day, _ := cmd.Flags().GetString("day")
		hour, _ := cmd.Flags().GetString("hour")
		gender, _ := cmd.Flags().GetString("gender")
		persist, _ := cmd.Flags().GetBool("persist")

		body, err := postJSON("/v1/analyses", map[string]any{
			"year":    year,
			"month":   month,
			"day":     day,
			"hour":    hour,
			"gender":  gender,
			"persist": persist,
		})
		if err != nil {
			return err
		}
		printProfile(body)
		return nil
	},
}

var civilCmd = &cobra.Command{
	Use:   "civil",
	Short: "按公历生辰排盘",
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		day, _ := cmd.Flags().GetInt("day")
		hour, _ := cmd.Flags().GetInt("hour")
		gender, _ := cmd.Flags().GetString("gender")
		persist, _ := cmd.Flags().GetBool("persist")

		req := map[string]any{
			"year":    year,
			"month":   month,
			"day":     day,
			"gender":  gender,
			"persist": persist,
		}
		if hour >= 0 {
			req["hour"] = hour
		}

		body, err := postJSON("/v1/analyses/civil", req)
		if err != nil {
			return err
		}
		printProfile(body)
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <charts.json>",
	Short: "从 JSON 文件提交批量排盘任务",
	Long:  "文件内容为命盘输入数组：[{\"year\":\"甲子\",\"month\":\"丙寅\",\"day\":\"戊辰\",\"hour\":\"壬戌\",\"gender\":\"男\",\"tag\":\"样本-1\"}]",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read charts file: %w", err)
		}
		var charts []map[string]any
		if err := json.Unmarshal(data, &charts); err != nil {
			return fmt.Errorf("failed to parse charts file: %w", err)
		}
		persist, _ := cmd.Flags().GetBool("persist")

		body, err := postJSON("/v1/jobs/batch", map[string]any{
			"charts":  charts,
			"persist": persist,
		})
		if err != nil {
			return err
		}
		if rawJSON {
			fmt.Println(string(body))
			return nil
		}
		fmt.Printf("job %s accepted, %d charts\n",
			gjson.GetBytes(body, "data.id").String(),
			gjson.GetBytes(body, "data.total").Int(),
		)
		return nil
	},
}

var jobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "查询批量任务状态",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := getJSON("/v1/jobs/" + args[0])
		if err != nil {
			return err
		}
		if rawJSON {
			fmt.Println(string(body))
			return nil
		}

		data := gjson.GetBytes(body, "data")
		fmt.Printf("status:    %s\n", data.Get("status").String())
		fmt.Printf("progress:  %d%% (%d ok / %d failed / %d total)\n",
			data.Get("progress").Int(),
			data.Get("completed").Int(),
			data.Get("failed").Int(),
			data.Get("total").Int(),
		)
		data.Get("results").ForEach(func(_, item gjson.Result) bool {
			if errMsg := item.Get("error").String(); errMsg != "" {
				fmt.Printf("  #%d %s: error %s\n", item.Get("index").Int(), item.Get("tag").String(), errMsg)
			} else {
				fmt.Printf("  #%d %s: %s %s\n",
					item.Get("index").Int(),
					item.Get("tag").String(),
					item.Get("pattern").String(),
					item.Get("strength").String(),
				)
			}
			return true
		})
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "输出内置常量表（六十甲子、藏干、十神、旬空），供核对引擎口径",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rawJSON {
			out, err := json.MarshalIndent(constantTables(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		printTables()
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发访问 Token（服务端启用 JWT 时供运维使用）",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		issuer, _ := cmd.Flags().GetString("issuer")
		user, _ := cmd.Flags().GetString("user")
		role, _ := cmd.Flags().GetString("role")
		accessTTL, _ := cmd.Flags().GetDuration("ttl")
		refreshTTL, _ := cmd.Flags().GetDuration("refresh-ttl")

		pair, err := utils.NewJWTManager(secret, issuer).GenerateTokenPair(user, role, accessTTL, refreshTTL)
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		if rawJSON {
			out, _ := json.Marshal(pair)
			fmt.Println(string(out))
			return nil
		}
		fmt.Printf("access:  %s\n", pair.AccessToken)
		fmt.Printf("refresh: %s\n", pair.RefreshToken)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", "http://localhost:8080", "API 服务地址")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer Token（启用认证时必填）")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "请求超时")
	rootCmd.PersistentFlags().BoolVar(&rawJSON, "json", false, "输出原始 JSON 响应")

	analyzeCmd.Flags().String("year", "", "年柱，如 甲子")
	analyzeCmd.Flags().String("month", "", "月柱，如 丙寅")
	analyzeCmd.Flags().String("day", "", "日柱，如 戊辰")
	analyzeCmd.Flags().String("hour", "", "时柱，缺省表示时辰不详")
	analyzeCmd.Flags().String("gender", "", "性别：男 或 女")
	analyzeCmd.Flags().Bool("persist", false, "归档命盘")
	_ = analyzeCmd.MarkFlagRequired("year")
	_ = analyzeCmd.MarkFlagRequired("month")
	_ = analyzeCmd.MarkFlagRequired("day")
	_ = analyzeCmd.MarkFlagRequired("gender")

	civilCmd.Flags().Int("year", 0, "公历年")
	civilCmd.Flags().Int("month", 0, "公历月")
	civilCmd.Flags().Int("day", 0, "公历日")
	civilCmd.Flags().Int("hour", -1, "小时 0-23，缺省表示时辰不详")
	civilCmd.Flags().String("gender", "", "性别：男 或 女")
	civilCmd.Flags().Bool("persist", false, "归档命盘")
	_ = civilCmd.MarkFlagRequired("year")
	_ = civilCmd.MarkFlagRequired("month")
	_ = civilCmd.MarkFlagRequired("day")
	_ = civilCmd.MarkFlagRequired("gender")

	batchCmd.Flags().Bool("persist", false, "归档批量任务中的全部命盘")

	tokenCmd.Flags().String("secret", "", "JWT 签名密钥")
	tokenCmd.Flags().String("issuer", "bazi-engine", "签发者")
	tokenCmd.Flags().String("user", "ops", "用户标识")
	tokenCmd.Flags().String("role", "admin", "角色")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "AccessToken 有效期")
	tokenCmd.Flags().Duration("refresh-ttl", 7*24*time.Hour, "RefreshToken 有效期")
	_ = tokenCmd.MarkFlagRequired("secret")

	rootCmd.AddCommand(analyzeCmd, civilCmd, batchCmd, jobCmd, tablesCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printProfile 摘要输出排盘结果，--json 时输出完整响应
func printProfile(body []byte) {
	if rawJSON {
		fmt.Println(string(body))
		return
	}

	p := gjson.GetBytes(body, "data.profile")
	pillars := strings.TrimSpace(fmt.Sprintf("%s %s %s %s",
		p.Get("input.year").String(),
		p.Get("input.month").String(),
		p.Get("input.day").String(),
		p.Get("input.hour").String(),
	))
	fmt.Printf("四柱:   %s\n", pillars)
	if p.Get("hour_omitted").Bool() {
		fmt.Println("提示:   時柱不詳，已按三柱排盘")
	}
	fmt.Printf("日主:   %s（%s）\n", p.Get("ten_gods.day_master").String(), p.Get("strength.day_wuxing").String())
	fmt.Printf("旺衰:   %s\n", p.Get("strength.verdict").String())
	fmt.Printf("格局:   %s", p.Get("pattern.result.主格").String())
	if p.Get("pattern.broken.is_poge").Bool() {
		fmt.Printf("（破格）")
	}
	fmt.Println()
	fmt.Printf("喜用神: %s\n", joinStrings(p.Get("yongshen.favorable")))
	fmt.Printf("忌神:   %s\n", joinStrings(p.Get("yongshen.unfavorable")))
	if chartID := gjson.GetBytes(body, "data.chart_id").String(); chartID != "" {
		fmt.Printf("归档:   %s\n", chartID)
	}
}

func joinStrings(arr gjson.Result) string {
	out := ""
	arr.ForEach(func(_, v gjson.Result) bool {
		if out != "" {
			out += " "
		}
		out += v.String()
		return true
	})
	return out
}

// constantTables 汇总引擎内置常量表
func constantTables() map[string]any {
	cycle := make([]string, 0, ganzhi.CycleSize)
	for i := 0; i < ganzhi.CycleSize; i++ {
		cycle = append(cycle, ganzhi.CycleName(i))
	}

	stems := make(map[string]map[string]string, 10)
	for _, s := range ganzhi.AllStems() {
		stems[string(s)] = map[string]string{
			"element":  string(s.Element()),
			"polarity": string(s.Polarity()),
		}
	}

	hidden := make(map[string][]map[string]any, 12)
	for _, b := range ganzhi.AllBranches() {
		entries := make([]map[string]any, 0, 3)
		for _, h := range b.HiddenStems() {
			entries = append(entries, map[string]any{
				"stem":   string(h.Stem),
				"role":   string(h.Role),
				"weight": h.Weight,
			})
		}
		hidden[string(b)] = entries
	}

	gods := make(map[string]map[string]string, 10)
	for _, dm := range ganzhi.AllStems() {
		row := make(map[string]string, 10)
		for _, target := range ganzhi.AllStems() {
			row[string(target)] = string(tengod.Resolve(dm, target))
		}
		gods[string(dm)] = row
	}

	voids := make(map[string][]string, 6)
	for head := 0; head < ganzhi.CycleSize; head += 10 {
		voids[ganzhi.CycleName(head)+"旬"] = []string{
			string(ganzhi.BranchFromIndex(head + 10)),
			string(ganzhi.BranchFromIndex(head + 11)),
		}
	}

	return map[string]any{
		"cycle":        cycle,
		"stems":        stems,
		"hidden_stems": hidden,
		"ten_gods":     gods,
		"void_pairs":   voids,
	}
}

func printTables() {
	fmt.Println("六十甲子:")
	for i := 0; i < ganzhi.CycleSize; i += 10 {
		row := make([]string, 0, 10)
		for j := i; j < i+10; j++ {
			row = append(row, ganzhi.CycleName(j))
		}
		fmt.Printf("  %s\n", strings.Join(row, " "))
	}

	fmt.Println("\n地支藏干:")
	for _, b := range ganzhi.AllBranches() {
		parts := make([]string, 0, 3)
		for _, h := range b.HiddenStems() {
			parts = append(parts, fmt.Sprintf("%s(%s %.1f)", h.Stem, h.Role, h.Weight))
		}
		fmt.Printf("  %s: %s\n", b, strings.Join(parts, " "))
	}

	fmt.Println("\n十神（行为日主，列为目标天干）:")
	header := make([]string, 0, 10)
	for _, s := range ganzhi.AllStems() {
		header = append(header, string(s))
	}
	fmt.Printf("      %s\n", strings.Join(header, "   "))
	for _, dm := range ganzhi.AllStems() {
		row := make([]string, 0, 10)
		for _, target := range ganzhi.AllStems() {
			row = append(row, string(tengod.Resolve(dm, target)))
		}
		fmt.Printf("  %s: %s\n", dm, strings.Join(row, " "))
	}

	fmt.Println("\n旬空:")
	for head := 0; head < ganzhi.CycleSize; head += 10 {
		fmt.Printf("  %s旬: %s%s\n",
			ganzhi.CycleName(head),
			ganzhi.BranchFromIndex(head+10),
			ganzhi.BranchFromIndex(head+11),
		)
	}
}

func postJSON(path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, apiAddr+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(req)
}

func getJSON(path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, apiAddr+path, nil)
	if err != nil {
		return nil, err
	}
	return doRequest(req)
}

func doRequest(req *http.Request) ([]byte, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = string(body)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, msg)
	}
	return body, nil
}
