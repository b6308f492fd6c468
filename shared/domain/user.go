package domain

import "time"

type User struct {
	Id        UserId
	Email     Email
	Admin     bool
	CreatedAt time.Time
}
