package config

import (
	"sort"
	"strings"
)

// Allowlist gates privileged self-registration. It is built once and never
// mutated, so it is safe for concurrent reads.
type Allowlist struct {
	admins map[string]struct{}
	gods   map[string]struct{}
}

func NewAllowlist(adminEmails, godEmails []string) Allowlist {
	return Allowlist{
		admins: normalizeEmails(adminEmails),
		gods:   normalizeEmails(godEmails),
	}
}

func normalizeEmails(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

func (a Allowlist) IsAuthorizedForAdmin(email string) bool {
	return contains(a.admins, email)
}

func (a Allowlist) IsAuthorizedForGod(email string) bool {
	return contains(a.gods, email)
}

func contains(set map[string]struct{}, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	_, ok := set[email]
	return ok
}

// AdminEmails returns a sorted copy of the admin list.
func (a Allowlist) AdminEmails() []string { return sortedKeys(a.admins) }

// GodEmails returns a sorted copy of the god list.
func (a Allowlist) GodEmails() []string { return sortedKeys(a.gods) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
