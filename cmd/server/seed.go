package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-approval/internal/container"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// demoUsers is the directory used for local walkthroughs
func demoUsers() []*entity.User {
	return []*entity.User{
		{ID: 1, Name: "John Employee", Role: entity.RoleEmployee, Department: "Engineering",
			Email: "john@example.com", HierarchyChain: []int64{2, 4},
			Avatar: "https://ui-avatars.com/api/?name=John+Employee&background=0D8ABC&color=fff"},
		{ID: 2, Name: "Sarah Manager", Role: entity.RoleManager, Department: "Engineering",
			Email: "sarah@example.com", HierarchyChain: []int64{4},
			Avatar: "https://ui-avatars.com/api/?name=Sarah+Manager&background=2E8B57&color=fff"},
		{ID: 3, Name: "Mike Admin", Role: entity.RoleAdmin, Department: "Travel",
			Email: "mike@example.com", HierarchyChain: []int64{},
			Avatar: "https://ui-avatars.com/api/?name=Mike+Admin&background=8B5CF6&color=fff"},
		{ID: 4, Name: "Lisa DU Head", Role: entity.RoleDUHead, Department: "Engineering",
			Email: "lisa@example.com", HierarchyChain: []int64{},
			Avatar: "https://ui-avatars.com/api/?name=Lisa+Head&background=D946EF&color=fff"},
		{ID: 5, Name: "Alex Employee", Role: entity.RoleEmployee, Department: "Marketing",
			Email: "alex@example.com", HierarchyChain: []int64{2, 4},
			Avatar: "https://ui-avatars.com/api/?name=Alex+Employee&background=F97316&color=fff"},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo user directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
			if err != nil {
				return err
			}
			if err := c.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			users := c.Repositories().User
			for _, u := range demoUsers() {
				if err := users.Upsert(cmd.Context(), u); err != nil {
					return fmt.Errorf("seed user %d: %w", u.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", u.ID, u.Role, u.Name)
			}
			return nil
		},
	}
}
