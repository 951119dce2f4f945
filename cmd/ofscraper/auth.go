package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ofscraper/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored session credentials",
	Long: `Manage stored OnlyFans session credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (headless use)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store session credentials securely",
	Long: `Store session credentials securely in the system keychain or encrypted file.

You will be prompted for:
  - Account name (if not provided)
  - The full Cookie header of a logged-in browser session
  - The browser's User-Agent string
  - The x-bc token

To get these values:
1. Log into the site in your browser
2. Open Developer Tools (F12) and go to the Network tab
3. Click any request to the site and open Request Headers
4. Copy the cookie, user-agent and x-bc header values`,
	Example: `  # Interactive login
  ofscraper auth login

  # Login with account name
  ofscraper auth login myaccount`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <name>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with sanitized credential information.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		fmt.Print("Account name: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read account name: %w", err)
		}
		name = strings.TrimSpace(input)
	}
	if name == "" {
		return fmt.Errorf("account name is required")
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Account %q already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Println("\nEnter your session values (the cookie will be hidden as you type):")

	fmt.Print("cookie header: ")
	cookie, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read cookie: %w", err)
	}
	if !strings.Contains(cookie, "sess=") {
		return fmt.Errorf("cookie must contain a sess value")
	}

	fmt.Print("user-agent: ")
	userAgent, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read user agent: %w", err)
	}

	fmt.Print("x-bc token: ")
	xbc, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read x-bc token: %w", err)
	}

	account := &auth.Account{
		Name:      name,
		Cookie:    cookie,
		UserAgent: strings.TrimSpace(userAgent),
		XBC:       xbc,
	}
	if err := account.Validate(); err != nil {
		return err
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("\nCredentials stored for %q.\n", name)
	fmt.Println("Start a run with:")
	fmt.Printf("  ofscraper scrape <creator> --account %s\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := args[0]
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	fmt.Printf("Account removed: %s\n", name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Use 'ofscraper auth login' to add one.")
		return nil
	}

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. %s\n", i+1, sanitized.Name)
		fmt.Printf("   Cookie:        %s\n", sanitized.Cookie)
		fmt.Printf("   User Agent:    %s\n", sanitized.UserAgent)
		fmt.Printf("   x-bc:          %s\n", sanitized.XBC)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
	return nil
}

// readSecret reads a line from stdin without echoing when attached to a
// terminal.
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
