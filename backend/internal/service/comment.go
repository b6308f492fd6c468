package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/itchan-dev/askchan/shared/domain"
	"github.com/samber/lo"
)

type CommentStorage interface {
	// Comments returns all comments of the parents, deleted included.
	Comments(ctx context.Context, parentIds []domain.PostId) ([]*domain.Post, error)
}

type Comments struct {
	storage CommentStorage
}

func NewComments(storage CommentStorage) *Comments {
	return &Comments{storage: storage}
}

// canSee: live posts are public, deleted ones are for admins and their author.
func canSee(comment *domain.Post, visitor *domain.User) bool {
	if !comment.Deleted {
		return true
	}
	if visitor == nil {
		return false
	}
	return visitor.Admin || visitor.Id == comment.Author.Id
}

func byCreation(a, b *domain.Post) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Id, b.Id)
}

// PrecacheComments loads the comments of every post in one query and assigns
// what visitor may see to post.Comments, oldest first. visitor is nil for anonymous.
func (c *Comments) PrecacheComments(ctx context.Context, posts []*domain.Post, visitor *domain.User) error {
	if len(posts) == 0 {
		return nil
	}

	ids := lo.Uniq(lo.Map(posts, func(p *domain.Post, _ int) domain.PostId { return p.Id }))
	all, err := c.storage.Comments(ctx, ids)
	if err != nil {
		return err
	}

	visible := lo.Filter(all, func(comment *domain.Post, _ int) bool {
		return comment.ParentId != nil && canSee(comment, visitor)
	})
	byParent := lo.GroupBy(visible, func(comment *domain.Post) domain.PostId { return *comment.ParentId })

	for _, post := range posts {
		group := slices.Clone(byParent[post.Id])
		if group == nil {
			group = []*domain.Post{}
		}
		slices.SortStableFunc(group, byCreation)
		post.Comments = group
	}
	return nil
}
