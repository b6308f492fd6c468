package domain

import (
	"fmt"
	"time"
)

// RevisionType codes are persisted; comments have no revision type.
type RevisionType int

const (
	QuestionRevision RevisionType = 1
	AnswerRevision   RevisionType = 2
)

var revisionTypeNames = map[RevisionType]string{
	QuestionRevision: "question_revision",
	AnswerRevision:   "answer_revision",
}

// revisionTypeByPostType is the only place the two enums meet.
var revisionTypeByPostType = map[PostType]RevisionType{
	PostTypeQuestion: QuestionRevision,
	PostTypeAnswer:   AnswerRevision,
}

func (t RevisionType) Valid() bool {
	_, ok := revisionTypeNames[t]
	return ok
}

func (t RevisionType) String() string {
	if name, ok := revisionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RevisionType(%d)", int(t))
}

func (t RevisionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Matches reports whether revisions of type t may belong to a post of type pt.
func (t RevisionType) Matches(pt PostType) bool {
	rt, ok := revisionTypeByPostType[pt]
	return ok && rt == t
}

// RevisionTypeFor returns the revision type for posts of type pt.
// ok is false for comments and unknown types.
func RevisionTypeFor(pt PostType) (RevisionType, bool) {
	rt, ok := revisionTypeByPostType[pt]
	return rt, ok
}

// PostRevision is an immutable snapshot of a post's text.
type PostRevision struct {
	Id        int64        `json:"id"`
	PostId    PostId       `json:"post_id"`
	Revision  RevisionNum  `json:"revision"`
	Type      RevisionType `json:"type"`
	Text      PostText     `json:"text"`
	Summary   string       `json:"summary,omitempty"`
	Author    User         `json:"author"`
	RevisedAt time.Time    `json:"revised_at"`
}

// RevisionCreationData describes a revision to be stored.
// Revision == 0 means "next number for this post".
type RevisionCreationData struct {
	Post      *Post
	Type      RevisionType
	Revision  RevisionNum `validate:"gte=0"`
	Text      PostText    `validate:"required"`
	Summary   string      `validate:"max=300"`
	AuthorId  UserId      `validate:"gt=0"`
	RevisedAt time.Time
	// Html is the rendered Text. When set, the post body is replaced along with the new revision.
	Html string
}
