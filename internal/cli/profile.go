package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/comigor/dermachat-go/internal/api"
	"github.com/comigor/dermachat-go/internal/profile"
)

var (
	profileFile     string
	activityType    string
	activityLimit   int
	activityDays    int
	activitySummary bool

	basicFirstName   string
	basicLastName    string
	basicPhone       string
	basicDateOfBirth string
	basicGender      string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show how complete your profile is",
	Long: `Show which profile sections are filled in.

Recommendations are more personal when the skin, hair, lifestyle, health and
makeup sections are complete.

Subcommands:
  show [section]         print the whole profile or one section
  set <section> -f FILE  save a section from a YAML file
  basic                  update name and contact details
  photo FILE             upload a skin photo for analysis
  activity               your recent activity

Examples:
  dermachat profile
  dermachat profile show skin > skin.yaml
  dermachat profile set skin -f skin.yaml`,
	Args: cobra.NoArgs,
	RunE: runProfile,
}

var profileShowCmd = &cobra.Command{
	Use:       "show [section]",
	Short:     "Print the profile or one section",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: sectionNames(),
	RunE:      runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:       "set <section> -f FILE",
	Short:     "Save a profile section from a YAML file",
	Args:      cobra.ExactArgs(1),
	ValidArgs: sectionNames(),
	RunE:      runProfileSet,
}

var profilePhotoCmd = &cobra.Command{
	Use:   "photo FILE",
	Short: "Upload a skin photo",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilePhoto,
}

var profileBasicCmd = &cobra.Command{
	Use:   "basic",
	Short: "Update name and contact details",
	Long: `Update the account's name and contact details. Only the flags given are
changed.

Examples:
  dermachat profile basic --phone 9876543210
  dermachat profile basic --first-name Asha --last-name Rao`,
	Args: cobra.NoArgs,
	RunE: runProfileBasic,
}

var profileActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show your recent activity",
	Args:  cobra.NoArgs,
	RunE:  runProfileActivity,
}

func init() {
	profileSetCmd.Flags().StringVarP(&profileFile, "file", "f", "", "YAML file with the section fields")
	_ = profileSetCmd.MarkFlagRequired("file")

	profileActivityCmd.Flags().StringVarP(&activityType, "type", "t", "", "only this activity type (search, product_view, ...)")
	profileActivityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 20, "max entries")
	profileActivityCmd.Flags().BoolVar(&activitySummary, "summary", false, "aggregated analytics instead of the log")
	profileActivityCmd.Flags().IntVar(&activityDays, "days", 30, "days covered by --summary (0 for all)")

	profileBasicCmd.Flags().StringVar(&basicFirstName, "first-name", "", "first name")
	profileBasicCmd.Flags().StringVar(&basicLastName, "last-name", "", "last name")
	profileBasicCmd.Flags().StringVar(&basicPhone, "phone", "", "phone number")
	profileBasicCmd.Flags().StringVar(&basicDateOfBirth, "date-of-birth", "", "date of birth (YYYY-MM-DD)")
	profileBasicCmd.Flags().StringVar(&basicGender, "gender", "", "gender")
	profileBasicCmd.MarkFlagsOneRequired("first-name", "last-name", "phone", "date-of-birth", "gender")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profilePhotoCmd)
	profileCmd.AddCommand(profileBasicCmd)
	profileCmd.AddCommand(profileActivityCmd)
}

func sectionNames() []string {
	names := make([]string, 0, len(profile.AllSections))
	for _, id := range profile.AllSections {
		names = append(names, string(id))
	}
	return names
}

func runProfile(cmd *cobra.Command, args []string) error {
	p, err := newClient(nil).CompleteProfile(cmd.Context())
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	out := cmd.OutOrStdout()
	completion := profile.Completion(p)
	fmt.Fprintf(out, "Profile %d%% complete\n\n", completion)
	for _, s := range profile.Sections(p) {
		mark := " "
		if s.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %-24s %s\n", mark, s.Title, s.Description)
	}
	if user := sess.User(); profile.ShouldPrompt(user, completion) {
		fmt.Fprintf(out, "\n%s\n", profile.PromptMessage(user))
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	client := newClient(nil)
	if len(args) == 0 {
		p, err := client.CompleteProfile(cmd.Context())
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		return printValue(cmd.OutOrStdout(), p)
	}

	id, err := profile.ParseSection(args[0])
	if err != nil {
		return err
	}
	section, err := profile.NewSection(id)
	if err != nil {
		return err
	}
	if err := client.Section(cmd.Context(), id, section); err != nil {
		return fmt.Errorf("load %s profile: %w", id, err)
	}
	return printValue(cmd.OutOrStdout(), section)
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	id, err := profile.ParseSection(args[0])
	if err != nil {
		return err
	}
	section, err := profile.NewSection(id)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(profileFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", profileFile, err)
	}
	if err := yaml.Unmarshal(raw, section); err != nil {
		return fmt.Errorf("parse %s: %w", profileFile, err)
	}

	if err := newClient(nil).UpdateSection(cmd.Context(), id, section); err != nil {
		return fmt.Errorf("save %s profile: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s profile.\n", id)
	return nil
}

func runProfilePhoto(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := newClient(nil).UploadSkinPhoto(cmd.Context(), filepath.Base(args[0]), f); err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Photo uploaded.")
	return nil
}

func runProfileBasic(cmd *cobra.Command, args []string) error {
	client := newClient(nil)
	user, err := client.CurrentUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	flags := cmd.Flags()
	for name, field := range map[string]*string{
		"first-name":    &user.FirstName,
		"last-name":     &user.LastName,
		"phone":         &user.Phone,
		"date-of-birth": &user.DateOfBirth,
		"gender":        &user.Gender,
	} {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}

	updated, err := client.UpdateBasicProfile(cmd.Context(), *user)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved details for %s.\n", updated.DisplayName())
	return nil
}

func runProfileActivity(cmd *cobra.Command, args []string) error {
	client := newClient(nil)

	var (
		raw json.RawMessage
		err error
	)
	if activitySummary {
		raw, err = client.ActivityAnalytics(cmd.Context(), activityDays)
	} else {
		raw, err = client.ActivityHistory(cmd.Context(), api.HistoryQuery{ActivityType: activityType, Limit: activityLimit})
	}
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode activity: %w", err)
	}
	return printValue(cmd.OutOrStdout(), v)
}
