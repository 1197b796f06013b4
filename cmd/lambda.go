package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run behind the AWS Lambda runtime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLambda(cmd)
		},
	}
}

func runLambda(cmd *cobra.Command) error {
	rt, err := setup(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to setup lambda")
	}

	logStartup("lambda starting...")
	lambda.StartWithOptions(rt.HandleEvent,
		lambda.WithContext(cmd.Context()))
	return nil
}
