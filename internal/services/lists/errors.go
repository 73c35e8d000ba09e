package lists

import "errors"

var (
	ErrListNotFound   = errors.New("list not found")
	ErrItemNotFound   = errors.New("list item not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrNotMember      = errors.New("you are not a member of this list")
	ErrForbidden      = errors.New("your role does not allow this action")
)
