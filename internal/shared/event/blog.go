package event

const (
	BlogLikedDestination              string = "blog_liked"
	BlogLikedConsumerNotification     string = "blog_liked_notification"
	BlogCommentedDestination          string = "blog_commented"
	BlogCommentedConsumerNotification string = "blog_commented_notification"
)

// BlogLikedMessage is addressed to the blog author.
type BlogLikedMessage struct {
	BlogID      int64  `json:"blog_id,string" validate:"required,gt=0"`
	BlogTitle   string `json:"blog_title"`
	AuthorID    int64  `json:"author_id,string" validate:"required,gt=0"`
	AuthorEmail string `json:"author_email" validate:"required,email"`
	ActorID     int64  `json:"actor_id,string" validate:"required,gt=0"`
	ActorName   string `json:"actor_name"`
}

type BlogCommentedMessage struct {
	BlogID      int64  `json:"blog_id,string" validate:"required,gt=0"`
	BlogTitle   string `json:"blog_title"`
	CommentID   int64  `json:"comment_id,string" validate:"required,gt=0"`
	Excerpt     string `json:"excerpt"`
	AuthorID    int64  `json:"author_id,string" validate:"required,gt=0"`
	AuthorEmail string `json:"author_email" validate:"required,email"`
	ActorID     int64  `json:"actor_id,string" validate:"required,gt=0"`
	ActorName   string `json:"actor_name"`
}
