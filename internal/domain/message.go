package domain

// Message is a direct message between two users.
type Message struct {
	ID         string `bson:"_id" json:"id"`
	SenderID   string `bson:"senderId" json:"senderId"`
	ReceiverID string `bson:"receiverId" json:"receiverId"`
	Content    string `bson:"content" json:"content"`
	Timestamp  int64  `bson:"timestamp" json:"timestamp"` // Unix millis
	Read       bool   `bson:"read" json:"read"`
}
