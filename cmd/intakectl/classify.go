package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yanqian/complaint-intake/internal/domain/intake"
)

var errRejected = errors.New(intake.MsgInvalidCategory)

type classifyOutput struct {
	Category intake.CategoryID `json:"category,omitempty"`
	Rejected bool              `json:"rejected"`
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Print the category a payload routes to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := readPayload(cmd)
			if err != nil {
				return err
			}
			category, ok := intake.Classify(payload)
			if err := writeJSON(cmd.OutOrStdout(), classifyOutput{Category: category, Rejected: !ok}); err != nil {
				return err
			}
			if !ok {
				return errRejected
			}
			return nil
		},
	}
}
