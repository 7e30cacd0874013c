package models

import "time"

type User struct {
	ID         string    `json:"_id" bson:"_id"`
	Email      string    `json:"email" bson:"email"`
	Username   string    `json:"username" bson:"username"`
	Password   string    `json:"-" bson:"password"`
	Admin      bool      `json:"admin" bson:"admin"`
	ProfilePic string    `json:"profilePic" bson:"profilePic"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// Post is owned by the user whose email it carries. Username is copied at
// creation time and is not kept in sync.
type Post struct {
	ID        string    `json:"_id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	Email     string    `json:"email" bson:"email"`
	Username  string    `json:"username" bson:"username"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Reply is a comment on a post. ReplyTo is not checked against existing posts.
type Reply struct {
	ID        string    `json:"_id" bson:"_id"`
	ReplyTo   string    `json:"replyTo" bson:"replyTo"`
	Comment   string    `json:"comment" bson:"comment"`
	Email     string    `json:"email" bson:"email"`
	Username  string    `json:"username" bson:"username"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
