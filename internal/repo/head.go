package repo

import (
	"github.com/go-git/go-git/v5"
)

// HeadInfo describes the checked-out revision of a repository.
type HeadInfo struct {
	Commit string
	Branch string // empty on a detached HEAD
}

// Head reads HEAD of the repository at root. ok is false when root is not a
// git repository or HEAD cannot be resolved (for example before the first
// commit); that is not an error for callers, who simply record nothing.
func Head(root string) (HeadInfo, bool) {
	r, err := git.PlainOpen(root)
	if err != nil {
		return HeadInfo{}, false
	}
	ref, err := r.Head()
	if err != nil {
		return HeadInfo{}, false
	}

	info := HeadInfo{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	return info, true
}
