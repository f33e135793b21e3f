package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/iestagram/auth"
	"github.com/satishbabariya/iestagram/cli/internal/config"
	"github.com/satishbabariya/iestagram/cli/internal/ui"
	"github.com/satishbabariya/iestagram/query/ast"
	"github.com/satishbabariya/iestagram/runtime/client"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}

		db, err := client.New(cfg.Provider, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		ui.PrintHeader("Seeding demo data")
		if err := seed(cmd, db); err != nil {
			return err
		}
		ui.PrintSuccess("done")
		return nil
	},
}

// seed goes through the same builder the API uses, so generated ids and
// timestamps follow the production path.
func seed(cmd *cobra.Command, db *client.Client) error {
	ctx := cmd.Context()

	users := []ast.Row{
		{"username": "alice", "full_name": "Alice Adams"},
		{"username": "bob", "full_name": "Bob Brown"},
	}

	var ids []string
	for _, u := range users {
		hash, err := auth.HashPassword("changeme")
		if err != nil {
			return err
		}
		u["password"] = hash
		res := db.From("users").Insert(u).Single().Exec(ctx)
		if res.Err != nil {
			return fmt.Errorf("seeding user %v: %w", u["username"], res.Err)
		}
		id, _ := res.Row()["id"].(string)
		ids = append(ids, id)
		ui.PrintInfo("user %v (%s)", u["username"], id)
	}

	post := db.From("posts").Insert(ast.Row{
		"user_id": ids[0],
		"content": "hello from alice",
	}).Single().Exec(ctx)
	if post.Err != nil {
		return fmt.Errorf("seeding post: %w", post.Err)
	}

	follow := db.From("follows").Insert(ast.Row{
		"follower_id":  ids[1],
		"following_id": ids[0],
	}).Exec(ctx)
	if follow.Err != nil {
		return fmt.Errorf("seeding follow: %w", follow.Err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
