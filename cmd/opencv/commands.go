package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the career profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/profile")
		if err != nil {
			return err
		}

		var p any
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the profile's identity fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		// Fetch first so unset flags keep their current values.
		resp, err := client.get(cmd.Context(), "/v1/profile")
		if err != nil {
			return err
		}
		var current struct {
			Profile struct {
				FullName *string `json:"full_name"`
				Location *string `json:"location"`
				Summary  *string `json:"summary"`
			} `json:"profile"`
		}
		if err := decodeJSON(resp, &current); err != nil {
			return err
		}

		body := map[string]any{
			"full_name": current.Profile.FullName,
			"location":  current.Profile.Location,
			"summary":   current.Profile.Summary,
		}
		for _, f := range []string{"name", "location", "summary"} {
			if !cmd.Flags().Changed(f) {
				continue
			}
			v, _ := cmd.Flags().GetString(f)
			key := f
			if f == "name" {
				key = "full_name"
			}
			body[key] = v
		}

		putResp, err := client.put(cmd.Context(), "/v1/profile", body)
		if err != nil {
			return err
		}
		var updated any
		if err := decodeJSON(putResp, &updated); err != nil {
			return err
		}

		printSuccess("Profile updated")
		return nil
	},
}

var profileContextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the compiled grounding context",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/profile/context")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["context"])
		return nil
	},
}

var experienceAddCmd = &cobra.Command{
	Use:   "add-experience",
	Short: "Add a work experience entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		company, _ := cmd.Flags().GetString("company")
		title, _ := cmd.Flags().GetString("title")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		current, _ := cmd.Flags().GetBool("current")
		description, _ := cmd.Flags().GetString("description")

		body := map[string]any{
			"company":     company,
			"title":       title,
			"start_date":  start,
			"is_current":  current,
			"description": description,
		}
		if end != "" {
			body["end_date"] = end
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/profile/experiences", body)
		if err != nil {
			return err
		}
		var saved map[string]any
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}

		printSuccess("Added %s at %s", title, company)
		return nil
	},
}

var educationAddCmd = &cobra.Command{
	Use:   "add-education",
	Short: "Add an education entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		institution, _ := cmd.Flags().GetString("institution")
		degree, _ := cmd.Flags().GetString("degree")
		field, _ := cmd.Flags().GetString("field")

		body := map[string]any{
			"institution": institution,
			"degree":      degree,
		}
		if field != "" {
			body["field"] = field
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/profile/educations", body)
		if err != nil {
			return err
		}
		var saved map[string]any
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}

		printSuccess("Added %s at %s", degree, institution)
		return nil
	},
}

var skillAddCmd = &cobra.Command{
	Use:   "add-skill <name>",
	Short: "Add a skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proficiency, _ := cmd.Flags().GetString("proficiency")

		body := map[string]any{"name": args[0]}
		if proficiency != "" {
			body["proficiency"] = proficiency
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/profile/skills", body)
		if err != nil {
			return err
		}
		var saved map[string]any
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}

		printSuccess("Added skill %s", args[0])
		return nil
	},
}

func init() {
	profileSetCmd.Flags().String("name", "", "full name")
	profileSetCmd.Flags().String("location", "", "location")
	profileSetCmd.Flags().String("summary", "", "professional summary")

	experienceAddCmd.Flags().String("company", "", "company name")
	experienceAddCmd.Flags().String("title", "", "job title")
	experienceAddCmd.Flags().String("start", "", "start date (YYYY-MM)")
	experienceAddCmd.Flags().String("end", "", "end date (YYYY-MM)")
	experienceAddCmd.Flags().Bool("current", false, "this is the current position")
	experienceAddCmd.Flags().String("description", "", "role description")
	experienceAddCmd.MarkFlagRequired("company")
	experienceAddCmd.MarkFlagRequired("title")
	experienceAddCmd.MarkFlagRequired("start")

	educationAddCmd.Flags().String("institution", "", "school or university")
	educationAddCmd.Flags().String("degree", "", "degree earned")
	educationAddCmd.Flags().String("field", "", "field of study")
	educationAddCmd.MarkFlagRequired("institution")
	educationAddCmd.MarkFlagRequired("degree")

	skillAddCmd.Flags().String("proficiency", "", "beginner, intermediate, advanced, or expert")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileContextCmd)
	profileCmd.AddCommand(experienceAddCmd)
	profileCmd.AddCommand(educationAddCmd)
	profileCmd.AddCommand(skillAddCmd)
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a job posting against the profile",
	Long: `Analyze a job posting against the profile.

Examples:
  opencv analyze --url https://example.com/jobs/123
  opencv analyze --file ./posting.pdf
  opencv analyze --text "We are looking for a Go engineer..."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		url, _ := cmd.Flags().GetString("url")
		file, _ := cmd.Flags().GetString("file")

		if text == "" && url == "" && file == "" {
			return fmt.Errorf("one of --text, --url, or --file is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		description := text
		if url != "" || file != "" {
			req := map[string]any{}
			switch {
			case url != "":
				req["type"] = "url"
				req["url"] = url
			case strings.HasSuffix(strings.ToLower(file), ".pdf"):
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading file: %w", err)
				}
				req["type"] = "pdf"
				req["content"] = base64.StdEncoding.EncodeToString(data)
			default:
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading file: %w", err)
				}
				req["type"] = "text"
				req["content"] = string(data)
			}

			resp, err := client.post(cmd.Context(), "/v1/postings/extract", req)
			if err != nil {
				return err
			}
			var extracted map[string]string
			if err := decodeJSON(resp, &extracted); err != nil {
				return err
			}
			description = extracted["text"]
		}

		resp, err := client.post(cmd.Context(), "/v1/postings/analyze", map[string]string{
			"job_description": description,
		})
		if err != nil {
			return err
		}

		var result struct {
			Alignment struct {
				RequiredSkills    []string `json:"required_skills"`
				MatchedExperience []string `json:"matched_experience"`
				Gaps              []string `json:"gaps"`
				Suggestions       string   `json:"suggestions"`
			} `json:"alignment"`
			Skills []string `json:"skills"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSection("Required skills", result.Alignment.RequiredSkills)
		printSection("Matched experience", result.Alignment.MatchedExperience)
		printSection("Gaps", result.Alignment.Gaps)
		if result.Alignment.Suggestions != "" {
			fmt.Printf("\n%s\n  %s\n", colorize(colorBold, "Suggestions:"), result.Alignment.Suggestions)
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printSection(label string, items []string) {
	fmt.Printf("\n%s\n", colorize(colorBold, label+":"))
	if len(items) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func init() {
	analyzeCmd.Flags().String("text", "", "job description text")
	analyzeCmd.Flags().String("url", "", "URL of the job posting")
	analyzeCmd.Flags().String("file", "", "file containing the posting (PDF or text)")
}

// --- applications ---

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "Manage saved applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/v1/applications?limit=%d", limit))
		if err != nil {
			return err
		}

		var apps []struct {
			ID        string `json:"id"`
			Company   string `json:"company"`
			JobTitle  string `json:"job_title"`
			CreatedAt string `json:"created_at"`
		}
		if err := decodeJSON(resp, &apps); err != nil {
			return err
		}

		if len(apps) == 0 {
			fmt.Println("No applications found.")
			return nil
		}

		for _, a := range apps {
			fmt.Printf("%s  %s  %s at %s\n",
				colorize(colorCyan, shortID(a.ID)),
				a.CreatedAt,
				a.JobTitle,
				a.Company,
			)
		}
		return nil
	},
}

var applicationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/applications/"+args[0])
		if err != nil {
			return err
		}

		var app any
		if err := decodeJSON(resp, &app); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(app)
	},
}

var applicationsDraftCmd = &cobra.Command{
	Use:   "draft <id>",
	Short: "Draft a tailored application document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/applications/"+args[0]+"/document", nil)
		if err != nil {
			return err
		}

		var app struct {
			Company  string  `json:"company"`
			JobTitle string  `json:"job_title"`
			Document *string `json:"document"`
		}
		if err := decodeJSON(resp, &app); err != nil {
			return err
		}
		if app.Document == nil {
			return fmt.Errorf("server returned no document")
		}

		printSuccess("Drafted document for %s at %s", app.JobTitle, app.Company)
		fmt.Println()
		fmt.Println(*app.Document)
		return nil
	},
}

var applicationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/applications/"+args[0])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted application %s", args[0])
		return nil
	},
}

func init() {
	applicationsListCmd.Flags().Int("limit", 20, "maximum number of applications to list")
	applicationsCmd.AddCommand(applicationsListCmd)
	applicationsCmd.AddCommand(applicationsShowCmd)
	applicationsCmd.AddCommand(applicationsDraftCmd)
	applicationsCmd.AddCommand(applicationsDeleteCmd)
}
