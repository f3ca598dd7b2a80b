package models

import "time"

type SessionRecord struct {
	Id        string
	Symbol    string
	TradeDate string
	Status    string
	Decision  string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MessageRecord struct {
	Id        int64
	SessionId string
	Agent     string
	Content   string
	Seq       int
	CreatedAt time.Time
}
