package model

import "sort"

// AllUsersWildcard is the owner reference that makes a path owned by all users.
const AllUsersWildcard = "*"

// CodeOwnerReference is an owner identity: an email address, or the literal
// "*" meaning every user. Equality is by exact string; no case folding is
// applied to emails.
type CodeOwnerReference struct {
	Email string
}

func NewCodeOwnerReference(email string) CodeOwnerReference {
	return CodeOwnerReference{Email: email}
}

// IsAllUsers reports whether the reference is the all-users wildcard.
func (r CodeOwnerReference) IsAllUsers() bool {
	return r.Email == AllUsersWildcard
}

func (r CodeOwnerReference) String() string {
	return r.Email
}

// SortReferences sorts references by email, in place.
func SortReferences(refs []CodeOwnerReference) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Email < refs[j].Email })
}

// DedupeReferences returns refs with duplicates removed, preserving first
// occurrence order.
func DedupeReferences(refs []CodeOwnerReference) []CodeOwnerReference {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[CodeOwnerReference]struct{}, len(refs))
	out := make([]CodeOwnerReference, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
