package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"taskflow/internal/model"
	"taskflow/internal/service"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "Manage categories",
}

var categoriesListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List categories with their task counts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		w, err := openWorkspace(cmd, false)
		if err != nil {
			return err
		}
		defer w.Close()

		categories := w.categories.Categories()
		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, categories)
		}
		if len(categories) == 0 {
			fmt.Fprintln(out, mutedStyle.Render("No categories yet. Use 'taskflow categories add <name>' to create one."))
			return nil
		}
		printCategories(out, categories)
		return nil
	},
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		icon, _ := cmd.Flags().GetString("icon")
		if err := checkIcon(icon); err != nil {
			return err
		}

		w, err := openWorkspace(cmd, false)
		if err != nil {
			return err
		}
		defer w.Close()

		if color == "" {
			color = model.DefaultColors[len(w.categories.Categories())%len(model.DefaultColors)]
		}
		c, err := w.categories.Create(cmd.Context(), service.CategoryInput{Name: args[0], Color: color, Icon: icon})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created category %s: %s\n", c.ID, c.Name)
		return nil
	},
}

var categoriesEditCmd = &cobra.Command{
	Use:   "edit <category-id>",
	Short: "Rename, recolour or reorder a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var patch model.CategoryPatch
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("color") {
			v, _ := flags.GetString("color")
			patch.Color = &v
		}
		if flags.Changed("icon") {
			v, _ := flags.GetString("icon")
			if err := checkIcon(v); err != nil {
				return err
			}
			patch.Icon = &v
		}
		if flags.Changed("order") {
			v, _ := flags.GetInt("order")
			patch.Order = &v
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change: pass at least one flag")
		}

		w, err := openWorkspace(cmd, false)
		if err != nil {
			return err
		}
		defer w.Close()

		id, err := w.resolveCategory(args[0])
		if err != nil {
			return err
		}
		c, err := w.categories.Update(cmd.Context(), id, patch)
		if err != nil {
			return err
		}
		printCategories(cmd.OutOrStdout(), []model.Category{c})
		return nil
	},
}

var categoriesRemoveCmd = &cobra.Command{
	Use:   "rm <category-id>",
	Short: "Delete a category that has no active tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		w, err := openWorkspace(cmd, yes)
		if err != nil {
			return err
		}
		defer w.Close()

		id, err := w.resolveCategory(args[0])
		if err != nil {
			return err
		}
		return cancelledIsOK(cmd, w.categories.Delete(cmd.Context(), id))
	},
}

func checkIcon(icon string) error {
	if icon == "" || slices.Contains(model.DefaultIcons, icon) {
		return nil
	}
	return fmt.Errorf("%w: unknown icon %q", service.ErrValidation, icon)
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesAddCmd)
	categoriesCmd.AddCommand(categoriesEditCmd)
	categoriesCmd.AddCommand(categoriesRemoveCmd)

	categoriesListCmd.Flags().Bool("json", false, "Print categories as JSON")

	categoriesAddCmd.Flags().String("color", "", "Hex colour (default from the palette)")
	categoriesAddCmd.Flags().String("icon", "", "Icon name")

	categoriesEditCmd.Flags().String("name", "", "New name")
	categoriesEditCmd.Flags().String("color", "", "Hex colour")
	categoriesEditCmd.Flags().String("icon", "", "Icon name")
	categoriesEditCmd.Flags().Int("order", 0, "Position in the list")

	categoriesRemoveCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
}
