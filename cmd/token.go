package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user (development)",
	Run: func(cmd *cobra.Command, _ []string) {
		issueToken(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("user", "", "user id placed in the token subject")
	tokenCmd.Flags().String("email", "", "optional email claim")
	tokenCmd.MarkFlagRequired("user")
}

func issueToken(cmd *cobra.Command) {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	verifier, err := newVerifier(config.Auth)
	if err != nil {
		logger.Fatal("creating the token issuer", zap.Error(err))
	}

	user := cmd.Flag("user").Value.String()
	token, err := verifier.Issue(user, cmd.Flag("email").Value.String())
	if err != nil {
		logger.Fatal("issuing a token", zap.Error(err), zap.String("user", user))
	}

	fmt.Println(token)
}
