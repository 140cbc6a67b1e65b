// Command authd runs the authentication service.
//
// @title                       Authentication API
// @version                     1.0
// @description                 Credential and session authority: registration, login, token validation, roles and password recovery.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "authd",
		Short:         "Credential and session authority",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newAllowlistCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "authd:", err)
		os.Exit(1)
	}
}
