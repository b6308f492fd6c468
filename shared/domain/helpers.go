package domain

import (
	"fmt"
	"time"
)

// for debug
func (p *Post) String() string {
	parent := "nil"
	if p.ParentId != nil {
		parent = fmt.Sprint(*p.ParentId)
	}
	s := fmt.Sprintf("[id:%d, type:%s, parent:%s, author:%d, created:%s, text:%q, comments:[", p.Id, p.Type, parent, p.Author.Id, p.CreatedAt.Format(time.StampMilli), p.Text)
	for i, c := range p.Comments {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(c.Id)
	}
	return s + "]]"
}

func (r *PostRevision) String() string {
	return fmt.Sprintf("[post:%d, revision:%d, type:%s, author:%d, revised:%s]", r.PostId, r.Revision, r.Type, r.Author.Id, r.RevisedAt.Format(time.StampMilli))
}
