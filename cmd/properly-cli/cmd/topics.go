package cmd

import (
	"fmt"
	"strings"

	"github.com/nfrund/properly/cmd/properly-cli/internal/topics"
	"github.com/nfrund/properly/internal/topicmgr"
	"github.com/spf13/cobra"
)

var (
	topicsFormat  string
	topicsModule  string
	topicsScope   string
	topicsChannel string
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the pub/sub topics of the messaging service",
	Long: `The topics command lists and inspects the topics the messaging service
publishes on. The catalogue is built for the broadcast channel in BROADCAST_CHANNEL
unless --channel is given.

Examples:
  # List all topics
  properly-cli topics list

  # List topics of the messenger module as JSON
  properly-cli topics list --module=messenger --format=json

  # Get detailed information about a topic
  properly-cli topics get chat-app.new-message

  # Validate a topic name
  properly-cli topics validate chat-app.typing`,
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := topics.Initialize(topicsChannel)
		if err != nil {
			return fmt.Errorf("failed to initialize topics: %w", err)
		}

		var list []topicmgr.Topic
		if topicsModule != "" {
			list = manager.ListByModule(topicsModule)
		} else {
			list = manager.List()
		}
		if topicsScope != "" {
			scope, err := parseScope(topicsScope)
			if err != nil {
				return err
			}
			list = topics.FilterScope(list, scope)
		}

		out := cmd.OutOrStdout()
		switch topicsFormat {
		case "json":
			return topics.DisplayTopicsJSON(out, list)
		case "table":
			topics.DisplayTopicsTable(out, list)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q, use 'table' or 'json'", topicsFormat)
		}
	},
}

var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := topics.Initialize(topicsChannel)
		if err != nil {
			return fmt.Errorf("failed to initialize topics: %w", err)
		}
		topic, err := manager.Lookup(args[0])
		if err != nil {
			return fmt.Errorf("%w\n\nUse 'properly-cli topics list' to see all available topics", err)
		}
		return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, topicsFormat)
	},
}

var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name>",
	Short: "Validate a topic name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := topicmgr.ValidateName(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Topic '%s' is valid\n", args[0])
		return nil
	},
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(s string) (topicmgr.TopicScope, error) {
	switch strings.ToLower(s) {
	case "framework":
		return topicmgr.ScopeFramework, nil
	case "module":
		return topicmgr.ScopeModule, nil
	default:
		return "", fmt.Errorf("invalid scope %q, valid scopes: framework, module", s)
	}
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicsListCmd, topicsGetCmd, topicsValidateCmd)

	topicsCmd.PersistentFlags().StringVarP(&topicsFormat, "format", "f", "table", "Output format (table, json)")
	topicsCmd.PersistentFlags().StringVarP(&topicsChannel, "channel", "c", "", "Broadcast channel (defaults to BROADCAST_CHANNEL)")
	topicsListCmd.Flags().StringVarP(&topicsModule, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&topicsScope, "scope", "s", "", "Filter topics by scope (framework, module)")
}
