package main

import (
	"github.com/spf13/cobra"

	"github.com/yanqian/complaint-intake/internal/domain/intake"
)

type normalizeOutput struct {
	Shape     intake.Shape            `json:"shape"`
	Questions []intake.QuestionConfig `json:"questions"`
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Print the question list a payload normalizes to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := readPayload(cmd)
			if err != nil {
				return err
			}
			questions, shape := intake.NormalizeShape(payload)
			return writeJSON(cmd.OutOrStdout(), normalizeOutput{Shape: shape, Questions: questions})
		},
	}
}
