package domain

type (
	Email  = string
	UserId = int64

	PostId      = int64
	PostTitle   = string
	PostText    = string
	RevisionNum = int

	ReplyAddressId = int64
	Address        = string
)
