package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JosephStocks/roberthalf-scraper/internal/secrets"
)

var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Manage login credentials in the OS keychain",
}

var credsSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Store the login password in the OS keychain",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsSet,
}

var credsDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Remove the stored password from the OS keychain",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsDelete,
}

func init() {
	rootCmd.AddCommand(credsCmd)
	credsCmd.AddCommand(credsSetCmd)
	credsCmd.AddCommand(credsDeleteCmd)
}

func runCredsSet(cmd *cobra.Command, args []string) error {
	username := args[0]

	fmt.Printf("Password for %s: ", username)
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	if err := secrets.SetPassword(username, password); err != nil {
		return fmt.Errorf("storing password: %w", err)
	}
	fmt.Println("password stored")
	return nil
}

func runCredsDelete(cmd *cobra.Command, args []string) error {
	if err := secrets.DeletePassword(args[0]); err != nil {
		return fmt.Errorf("deleting password: %w", err)
	}
	fmt.Println("password deleted")
	return nil
}
