package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "Payment webhooks microservice",
	Long:  "A microservice that ingests payment gateway webhooks and atomically reconciles payment, quote, session, and order state.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
