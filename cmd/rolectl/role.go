package main

import (
	"fmt"
	"io"

	"github.com/fernandezvara/roles"
	"github.com/spf13/cobra"
)

func newRoleCmd(a *app) *cobra.Command {
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Create, list and delete roles",
	}

	createCmd := &cobra.Command{
		Use:   "create NAME...",
		Short: "Create roles; nothing is created if any name is taken",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.service.Create(a.ctx(cmd), args...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), created, func(w io.Writer) { printRoles(w, created) })
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := a.service.AllRoles(a.ctx(cmd))
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), all, func(w io.Writer) { printRoles(w, all) })
		},
	}

	findCmd := &cobra.Command{
		Use:   "find REF",
		Short: "Find a role by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := a.service.Find(a.ctx(cmd), roles.ParseRef(args[0]), roles.Strict())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), role, func(w io.Writer) { printRoles(w, []roles.Role{*role}) })
		},
	}

	findOrCreateCmd := &cobra.Command{
		Use:   "find-or-create NAME",
		Short: "Return the named role, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := a.service.FindOrCreate(a.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), role, func(w io.Writer) { printRoles(w, []roles.Role{role}) })
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete REF",
		Short: "Delete a role and its assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := roles.ParseRef(args[0])
			if err := a.service.DeleteRole(a.ctx(cmd), ref); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{"deleted": ref.String()}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %s\n", ref)
			})
		},
	}

	roleCmd.AddCommand(createCmd, listCmd, findCmd, findOrCreateCmd, deleteCmd)
	return roleCmd
}
