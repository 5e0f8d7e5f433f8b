package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fernandezvara/roles"
)

// print writes v as indented JSON with --out json, otherwise calls text.
func (a *app) print(w io.Writer, v any, text func(io.Writer)) error {
	if a.out == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func printRoles(w io.Writer, list []roles.Role) {
	if len(list) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, r := range list {
		fmt.Fprintf(w, "%d\t%s\n", r.ID, r.Name)
	}
}

// parseRefs turns command line arguments into role references.
func parseRefs(args []string) []roles.RoleRef {
	refs := make([]roles.RoleRef, len(args))
	for i, arg := range args {
		refs[i] = roles.ParseRef(strings.TrimSpace(arg))
	}
	return refs
}
