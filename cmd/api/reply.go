package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/persona-relay/backend/internal/analysis/heuristic"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
)

func newReplyCmd(root *rootOptions) *cobra.Command {
	var personaID string

	cmd := &cobra.Command{
		Use:   "reply [text...]",
		Short: "Print the heuristic reply for a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(root); err != nil {
				return err
			}
			text := strings.Join(args, " ")
			_, err := fmt.Fprintln(cmd.OutOrStdout(), heuristic.New().Reply(text, personaID, nil))
			return err
		},
	}

	cmd.Flags().StringVar(&personaID, "persona", persona.DefaultID, "persona id")
	return cmd
}
