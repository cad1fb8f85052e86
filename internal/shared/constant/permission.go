package constant

// Casbin objects.
const (
	PermBlog    string = "blog"
	PermComment string = "comment"
)

// Casbin actions.
const (
	PermActWrite    string = "write"
	PermActModerate string = "moderate"
)

// Casbin roles. A new account is granted RoleUser on signup.
const (
	RoleAdmin     string = "admin"
	RoleModerator string = "moderator"
	RoleUser      string = "user"
)
