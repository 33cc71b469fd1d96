package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// List visibility.
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"
)

func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return true
	}
	return false
}

const (
	MinListRating = 1
	MaxListRating = 5
)
