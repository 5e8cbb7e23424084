package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/api"
)

var (
	authEmail    string
	authPassword string
	whoamiFresh  bool

	registerFirstName string
	registerLastName  string
	registerPhone     string
	registerBirthDate string
	registerGender    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long: `Sign in with email and password. The token is stored locally and sent
with every request until you log out or the backend rejects it.

The password is read from stdin when --password is not given.

Examples:
  dermachat login --email me@example.com
  echo "$PASS" | dermachat login --email me@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient(nil).Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !sess.IsAuthenticated() {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		client := newClient(nil)
		if whoamiFresh {
			if _, err := client.RefreshToken(cmd.Context()); err != nil && !errors.Is(err, api.ErrUnauthorized) {
				return fmt.Errorf("refresh token: %w", err)
			}
		}
		user, err := client.CurrentUser(cmd.Context())
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				fmt.Fprintln(cmd.OutOrStdout(), "Your session expired. Run `dermachat login` to sign in again.")
				return nil
			}
			return err
		}
		return printValue(cmd.OutOrStdout(), user)
	},
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiFresh, "refresh", false, "exchange the stored token for a fresh one first")

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (read from stdin when empty)")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&registerFirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerLastName, "last-name", "", "last name")
	registerCmd.Flags().StringVar(&registerPhone, "phone", "", "phone number")
	registerCmd.Flags().StringVar(&registerBirthDate, "date-of-birth", "", "date of birth (YYYY-MM-DD)")
	registerCmd.Flags().StringVar(&registerGender, "gender", "", "gender")
	_ = registerCmd.MarkFlagRequired("first-name")
	_ = registerCmd.MarkFlagRequired("last-name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), authPassword)
	if err != nil {
		return err
	}
	res, err := newClient(nil).Login(cmd.Context(), api.LoginRequest{Email: authEmail, Password: password})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", res.User.DisplayName())
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), authPassword)
	if err != nil {
		return err
	}
	res, err := newClient(nil).Register(cmd.Context(), api.RegisterRequest{
		Email:       authEmail,
		Password:    password,
		FirstName:   registerFirstName,
		LastName:    registerLastName,
		Phone:       registerPhone,
		DateOfBirth: registerBirthDate,
		Gender:      registerGender,
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Run `dermachat profile` to personalize your recommendations.\n", res.User.DisplayName())
	return nil
}

// readPassword returns flagValue, or the first line of in when the flag is empty.
func readPassword(in io.Reader, prompt io.Writer, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(prompt, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
