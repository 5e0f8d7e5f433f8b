package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fernandezvara/roles"
	"github.com/spf13/cobra"
)

func parseSubject(arg string) (roles.Subject, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subject id %q is not a number", arg)
	}
	return roles.Subject(id), nil
}

func newSubjectCmd(a *app) *cobra.Command {
	subjectCmd := &cobra.Command{
		Use:   "subject",
		Short: "Assign, revoke and inspect a subject's roles",
	}

	// mutation builds assign, revoke and sync, which share their shape.
	mutation := func(use, short string, op func(*cobra.Command, roles.Subject, []roles.RoleRef) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " SUBJECT_ID REF...",
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				subject, err := parseSubject(args[0])
				if err != nil {
					return err
				}
				if err := op(cmd, subject, parseRefs(args[1:])); err != nil {
					return err
				}
				return printSubjectRoles(a, cmd, subject)
			},
		}
	}

	assignCmd := mutation("assign", "Assign roles to a subject", func(cmd *cobra.Command, s roles.Subject, refs []roles.RoleRef) error {
		return a.service.AssignRoles(a.ctx(cmd), s, refs...)
	})
	revokeCmd := mutation("revoke", "Revoke roles from a subject", func(cmd *cobra.Command, s roles.Subject, refs []roles.RoleRef) error {
		return a.service.RevokeRoles(a.ctx(cmd), s, refs...)
	})
	syncCmd := mutation("sync", "Replace a subject's roles with exactly the given set", func(cmd *cobra.Command, s roles.Subject, refs []roles.RoleRef) error {
		return a.service.SyncRoles(a.ctx(cmd), s, refs...)
	})

	rolesCmd := &cobra.Command{
		Use:   "roles SUBJECT_ID",
		Short: "List a subject's roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := parseSubject(args[0])
			if err != nil {
				return err
			}
			return printSubjectRoles(a, cmd, subject)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check SUBJECT_ID TOKEN...",
		Short: "Evaluate a middleware requirement, e.g. `check 7 required admin editor`",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := parseSubject(args[0])
			if err != nil {
				return err
			}
			req, err := roles.ParseRequirement(args[1:]...)
			if err != nil {
				return err
			}
			sr, err := a.service.LoadSubjectRoles(a.ctx(cmd), subject)
			if err != nil {
				return err
			}

			result := map[string]any{"subject_id": int64(subject), "mode": req.Mode.String(), "allowed": true}
			evalErr := req.Evaluate(sr)
			var denied *roles.UnauthorizedError
			if errors.As(evalErr, &denied) {
				result["allowed"] = false
				result["message"] = denied.Message
			}
			if err := a.print(cmd.OutOrStdout(), result, func(w io.Writer) {
				if denied != nil {
					fmt.Fprintln(w, denied.Message)
					return
				}
				fmt.Fprintln(w, "allowed")
			}); err != nil {
				return err
			}
			return evalErr
		},
	}

	withRoleCmd := &cobra.Command{
		Use:   "with-role REF...",
		Short: "List subjects holding any of the roles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.service.SubjectIDsWithRole(a.ctx(cmd), parseRefs(args)...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), ids, func(w io.Writer) {
				for _, id := range ids {
					fmt.Fprintln(w, id)
				}
			})
		},
	}

	subjectCmd.AddCommand(assignCmd, revokeCmd, syncCmd, rolesCmd, checkCmd, withRoleCmd)
	return subjectCmd
}

func printSubjectRoles(a *app, cmd *cobra.Command, subject roles.Subject) error {
	held, err := a.service.GetRoles(a.ctx(cmd), subject)
	if err != nil {
		return err
	}
	return a.print(cmd.OutOrStdout(), held, func(w io.Writer) { printRoles(w, held) })
}
