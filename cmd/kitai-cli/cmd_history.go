package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"kitai/content"
	"kitai/repository"
	"kitai/utils"
)

var (
	historyOrg   string
	historyLimit int

	postsSite string
	postsFeed string
	postsFrom string
	postsTo   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the latest stored resumes of an organization",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := openDatabase(); err != nil {
			return err
		}
		records, err := repository.ListResumes(cmd.Context(), historyOrg, historyLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, records)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tPROVIDER\tMODEL\tLINKS\tREQUEST")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Provider, r.Model, len(r.SelectedLinks), r.RequestID)
		}
		return tw.Flush()
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <request-id>",
	Short: "Print the log events of one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDatabase(); err != nil {
			return err
		}
		events, err := repository.ListLogEvents(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, events)
		}
		for _, ev := range events {
			line := fmt.Sprintf("%s %-5s %-10s %s", ev.CreatedAt.Format("15:04:05.000"), ev.Level, ev.EventType, ev.Message)
			if ev.BatchIndex != nil {
				line += fmt.Sprintf(" batch=%d", *ev.BatchIndex)
			}
			if ev.ErrorMessage != "" {
				line += " error=" + ev.ErrorMessage
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Preview the posts a content source returns for a range",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if (postsSite == "") == (postsFeed == "") {
			return fmt.Errorf("set exactly one of --site or --feed")
		}
		from, to, err := parseWindow(postsFrom, postsTo, 24*time.Hour)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var src content.Source
		if postsSite != "" {
			src = content.NewWordPressClient(postsSite, content.OptionsFromConfig(cfg))
		} else {
			src = content.NewFeedSource(postsFeed, content.OptionsFromConfig(cfg))
		}
		docs, err := src.ListPosts(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, docs)
		}
		for _, d := range docs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n    %s\n    %s\n",
				d.PublishedAt.Format("2006-01-02 15:04"), utils.CleanHTML(d.Title), d.Link,
				utils.Truncate(utils.CleanHTML(d.ExcerptHTML), 160))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d posts\n", len(docs))
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyOrg, "org", "", "organization id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of resumes (max 100)")
	_ = historyCmd.MarkFlagRequired("org")

	postsCmd.Flags().StringVar(&postsSite, "site", "", "WordPress site URL")
	postsCmd.Flags().StringVar(&postsFeed, "feed", "", "RSS or Atom feed URL")
	postsCmd.Flags().StringVar(&postsFrom, "from", "", "range start (RFC3339 or YYYY-MM-DD)")
	postsCmd.Flags().StringVar(&postsTo, "to", "", "range end (RFC3339 or YYYY-MM-DD)")
}
