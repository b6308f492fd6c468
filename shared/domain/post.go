package domain

import (
	"fmt"
	"time"
)

// PostType is stored as a smallint; zero is never a valid type.
type PostType int

const (
	PostTypeQuestion PostType = 1
	PostTypeAnswer   PostType = 2
	PostTypeComment  PostType = 3
)

var postTypeNames = map[PostType]string{
	PostTypeQuestion: "question",
	PostTypeAnswer:   "answer",
	PostTypeComment:  "comment",
}

func (t PostType) Valid() bool {
	_, ok := postTypeNames[t]
	return ok
}

func (t PostType) String() string {
	if name, ok := postTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PostType(%d)", int(t))
}

func (t PostType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Post is a question, an answer or a comment.
// Answers have a question parent, comments have a question or answer parent.
type Post struct {
	Id        PostId    `json:"id"`
	Type      PostType  `json:"type"`
	ParentId  *PostId   `json:"parent_id,omitempty"`
	Author    User      `json:"author"`
	Title     PostTitle `json:"title,omitempty"`
	Text      PostText  `json:"text"`
	Html      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `json:"deleted,omitempty"`

	// Comments is filled by comment precaching for the current request only.
	Comments []*Post `json:"comments,omitempty"`
}

func (p *Post) IsQuestion() bool { return p.Type == PostTypeQuestion }
func (p *Post) IsAnswer() bool   { return p.Type == PostTypeAnswer }
func (p *Post) IsComment() bool  { return p.Type == PostTypeComment }

// Commentable reports whether comments may be attached to the post. Comments don't nest.
func (p *Post) Commentable() bool {
	return p.Type == PostTypeQuestion || p.Type == PostTypeAnswer
}

// to iterate thru layers: handler -> service -> storage
type PostCreationData struct {
	Type     PostType
	ParentId *PostId
	Author   User
	Title    PostTitle
	Text     PostText
	Html     string
}
