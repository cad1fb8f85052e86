package entity

// Kind tells the client how to render a notification.
type Kind string

const (
	KindWelcome Kind = "welcome"
	KindFollow  Kind = "follow"
	KindLike    Kind = "like"
	KindComment Kind = "comment"
)

func (k Kind) String() string { return string(k) }
