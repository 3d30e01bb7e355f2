package calls

import "errors"

var (
	ErrNotMember    = errors.New("not a member of the group")
	ErrNoActiveCall = errors.New("no active call in this group")
)
